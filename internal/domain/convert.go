package domain

const (
	kgToLb = 2.2046226218
	inToCm = 2.54
	ozToMl = 29.5735295625
)

// CanonicalUnit maps a unit suffix to the unit values are stored in
// (ml, min, kg, cm). Unknown units map to "".
func CanonicalUnit(unit string) string {
	switch unit {
	case "ml", "oz":
		return "ml"
	case "min", "mins", "minutes", "h":
		return "min"
	case "kg", "g", "lb", "lbs":
		return "kg"
	case "cm", "mm", "in":
		return "cm"
	}
	return ""
}

// Convert converts v from the given unit into to. Returns v unchanged if
// from == to or if the pair is unrecognised.
func Convert(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	switch {
	case from == "kg" && (to == "lb" || to == "lbs"):
		return v * kgToLb
	case (from == "lb" || from == "lbs") && to == "kg":
		return v / kgToLb
	case from == "g" && to == "kg":
		return v / 1000
	case from == "mm" && to == "cm":
		return v / 10
	case from == "in" && to == "cm":
		return v * inToCm
	case from == "oz" && to == "ml":
		return v * ozToMl
	case from == "h" && to == "min":
		return v * 60
	case (from == "mins" || from == "minutes") && to == "min":
		return v
	}
	return v
}
