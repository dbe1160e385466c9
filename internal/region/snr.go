package region

// MarginDB is the 5dB link margin SF assignment and the ADR power step
// both require.
const MarginDB = 5

// requiredSNR is the standard LoRaWAN ADR required-SNR table, in dB, used
// to compute the ADR power-step gap.
var requiredSNR = map[SF]float64{
	7:  -7.5,
	8:  -10,
	9:  -12.5,
	10: -15,
	11: -17.5,
	12: -20,
}

// RequiredSNR returns the minimum demodulation SNR for sf.
func RequiredSNR(sf SF) float64 {
	if v, ok := requiredSNR[sf]; ok {
		return v
	}
	return requiredSNR[MaxSF]
}
