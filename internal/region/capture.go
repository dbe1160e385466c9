package region

// captureMatrix[sel][other] is the SNIR threshold, in dB, that the
// received power of sel must exceed the received power of other by for
// sel to survive interference from other. The diagonal is 1: two
// same-SF transmissions need a power difference of more than 1dB to
// resolve capture. Off-diagonal
// entries are the classic asymmetric non-orthogonal SF isolation table
// from Bor et al., "Do LoRa Low-Power Wide-Area Networks Scale?".
var captureMatrix = map[SF]map[SF]float64{
	7:  {7: 1, 8: -8, 9: -9, 10: -9, 11: -9, 12: -9},
	8:  {7: -11, 8: 1, 9: -11, 10: -12, 11: -13, 12: -13},
	9:  {7: -15, 8: -13, 9: 1, 10: -13, 11: -14, 12: -15},
	10: {7: -19, 8: -18, 9: -17, 10: 1, 11: -17, 12: -18},
	11: {7: -22, 8: -22, 9: -21, 10: -20, 11: 1, 12: -20},
	12: {7: -25, 8: -25, 9: -25, 10: -24, 11: -23, 12: 1},
}

// CaptureThreshold returns the SNIR capture threshold T[sel][other].
func CaptureThreshold(sel, other SF) float64 {
	if row, ok := captureMatrix[sel]; ok {
		if v, ok := row[other]; ok {
			return v
		}
	}
	return 1
}
