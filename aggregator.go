package sensorhub

// calcHwLatency returns the minimum latency field across every live
// request for handle, or LatencyInvalid if there are none (spec.md
// §4.4). Pure: depends only on requests live in t whose SensorHandle
// equals handle.
func calcHwLatency(t *requestTable, handle uint32) Latency {
	smallest := LatencyInvalid
	t.scan(handle, func(req ClientRequest) {
		if req.Latency < smallest {
			smallest = req.Latency
		}
	})
	return smallest
}

// calcHwRate computes the effective target rate for a sensor (spec.md
// §4.4). extraRate models a hypothetical request not yet in the table
// (RateOff if none); removedRate models one instance of a rate to
// subtract from the live set, discarding only the first live entry that
// matches it (RateOff if none). supportedRates must be ascending.
func calcHwRate(t *requestTable, handle uint32, supportedRates []Rate, extraRate, removedRate Rate) Rate {
	var (
		haveUsers    bool
		haveOnChange = extraRate == RateOnChange
		highestReq   Rate
	)

	if extraRate != RateOff {
		haveUsers = true
		if extraRate != RateOnDemand && extraRate != RateOnChange {
			highestReq = extraRate
		}
	}

	removed := removedRate
	t.scan(handle, func(req ClientRequest) {
		if removed != RateOff && req.Rate == removed {
			removed = RateOff
			return
		}

		haveUsers = true

		switch req.Rate {
		case RateOnDemand:
			// contributes to haveUsers only
		case RateOnChange:
			haveOnChange = true
		default:
			if highestReq < req.Rate {
				highestReq = req.Rate
			}
		}
	})

	if highestReq == RateOff {
		switch {
		case !haveUsers:
			return RateOff
		case haveOnChange:
			return RateOnChange
		default:
			return RateOnDemand
		}
	}

	for _, r := range supportedRates {
		if r >= highestReq {
			return r
		}
	}
	return RateImpossible
}
