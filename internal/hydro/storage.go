package hydro

// UpdateReservoir returns the reservoir storage after one period.
// Storage is not clamped and may go negative.
func UpdateReservoir(prev, precipitation, evapotranspiration, kb float64) float64 {
	return prev + precipitation - evapotranspiration - kb
}

// UpdateChannel returns the channel storage after receiving the routed flow.
func UpdateChannel(prev, flow, kc float64) float64 {
	return prev + kc*flow
}

// UpdateSoil returns the soil storage after one period.
func UpdateSoil(prev, precipitation, evapotranspiration, ks, kz float64) float64 {
	return prev + ks*precipitation - kz*evapotranspiration
}
