package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"babymeasure/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestMeasurementRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	base := time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC)

	// Appended out of time order on purpose.
	inputs := []domain.Record{
		{UID: uuid.New(), Category: domain.CategoryBottle, Time: base.Add(2 * time.Hour), Subtype: domain.SubtypeFormula, Amount: ptr(120)},
		{UID: uuid.New(), Category: domain.CategoryBottle, Time: base, Subtype: domain.SubtypeBreastmilk, Amount: ptr(90)},
		{UID: uuid.New(), Category: domain.CategoryBottle, Time: base.Add(2 * time.Hour), Subtype: domain.SubtypeFormula, Amount: ptr(60)},
	}
	var lastID int64
	for _, r := range inputs {
		id, err := db.AppendMeasurement(ctx, r)
		if err != nil {
			t.Fatalf("AppendMeasurement: %v", err)
		}
		if id <= lastID {
			t.Fatalf("expected increasing ids, got %d after %d", id, lastID)
		}
		lastID = id
	}

	all, err := db.ReadMeasurements(ctx, domain.CategoryBottle, "")
	if err != nil {
		t.Fatalf("ReadMeasurements: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if *all[0].Amount != 90 || *all[1].Amount != 120 || *all[2].Amount != 60 {
		t.Errorf("expected time order with stable ties, got %v %v %v", *all[0].Amount, *all[1].Amount, *all[2].Amount)
	}

	formula, _ := db.ReadMeasurements(ctx, domain.CategoryBottle, domain.SubtypeFormula)
	if len(formula) != 2 {
		t.Errorf("expected 2 formula records, got %d", len(formula))
	}

	// Returned records do not alias the store.
	*all[0].Amount = 1
	again, _ := db.ReadMeasurements(ctx, domain.CategoryBottle, domain.SubtypeBreastmilk)
	if *again[0].Amount != 90 {
		t.Errorf("store was modified through a returned record: %v", *again[0].Amount)
	}

	// Other categories are separate.
	diapers, _ := db.ReadMeasurements(ctx, domain.CategoryDiaper, "")
	if len(diapers) != 0 {
		t.Errorf("expected no diapers, got %d", len(diapers))
	}

	// Update keeps the uid.
	upd := again[0]
	upd.Amount = ptr(95)
	upd.UID = uuid.Nil
	if err := db.UpdateMeasurement(ctx, upd); err != nil {
		t.Fatalf("UpdateMeasurement: %v", err)
	}
	again, _ = db.ReadMeasurements(ctx, domain.CategoryBottle, domain.SubtypeBreastmilk)
	if *again[0].Amount != 95 || again[0].UID != inputs[1].UID {
		t.Errorf("unexpected record after update: %+v", again[0])
	}

	// Delete.
	ok, err := db.DeleteMeasurement(ctx, domain.CategoryBottle, upd.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteMeasurement: %v %v", ok, err)
	}
	ok, _ = db.DeleteMeasurement(ctx, domain.CategoryBottle, upd.ID)
	if ok {
		t.Error("expected second delete to report false")
	}

	if _, err := db.AppendMeasurement(ctx, domain.Record{}); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestBodySubtypeFilter(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Now()

	_, _ = db.AppendMeasurement(ctx, domain.Record{Category: domain.CategoryBody, Time: now, Weight: ptr(4.1)})
	_, _ = db.AppendMeasurement(ctx, domain.Record{Category: domain.CategoryBody, Time: now, Height: ptr(54)})

	weights, _ := db.ReadMeasurements(ctx, domain.CategoryBody, domain.FieldWeight)
	if len(weights) != 1 || *weights[0].Weight != 4.1 {
		t.Errorf("expected one weight record, got %+v", weights)
	}
	heads, _ := db.ReadMeasurements(ctx, domain.CategoryBody, domain.FieldHead)
	if len(heads) != 0 {
		t.Errorf("expected no head records, got %d", len(heads))
	}
}

func TestConcurrentAppendsGetUniqueIDs(t *testing.T) {
	db := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := db.AppendMeasurement(ctx, domain.Record{Category: domain.CategoryDiaper, Time: time.Now(), Subtype: domain.SubtypePee})
			if err != nil {
				t.Errorf("AppendMeasurement: %v", err)
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestUserAndSessionRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	user, err := db.Create(ctx, "parent", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, "parent", "hash"); err == nil {
		t.Error("expected duplicate username to fail")
	}
	if n, _ := db.Count(ctx); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
	if u, _ := db.GetByID(ctx, user.ID); u == nil || u.Username != "parent" {
		t.Errorf("GetByID returned %+v", u)
	}

	sessions := db.NewSessionRepo()
	if err := sessions.Create(ctx, user.ID, "tok", "ua", "127.0.0.1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create session: %v", err)
	}
	_ = sessions.Create(ctx, user.ID, "old", "ua", "127.0.0.1", time.Now().Add(-time.Hour))

	s, err := sessions.GetByToken(ctx, "tok")
	if err != nil || s.UserAgent != "ua" || s.IP != "127.0.0.1" {
		t.Fatalf("GetByToken: %+v %v", s, err)
	}
	if err := sessions.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if _, err := sessions.GetByToken(ctx, "old"); err == nil {
		t.Error("expected expired session to be gone")
	}
	_ = sessions.Delete(ctx, "tok")
	if _, err := sessions.GetByToken(ctx, "tok"); err == nil {
		t.Error("expected deleted session to be gone")
	}
}

func TestPairingRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	p, err := db.GetPairing(ctx, 42)
	if err != nil || p != nil {
		t.Fatalf("expected unknown pairing, got %+v %v", p, err)
	}
	_ = db.SavePairing(ctx, domain.ChatPairing{ChatUserID: 42, FirstName: "Ada", LoginAttempts: 1})
	p, _ = db.GetPairing(ctx, 42)
	if p == nil || p.FirstName != "Ada" || p.LoginAttempts != 1 {
		t.Errorf("unexpected pairing %+v", p)
	}
}
