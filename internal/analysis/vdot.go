package analysis

import (
	"math"
	"sort"
)

// vdotDistances are the race distances tabulated for each VDOT
var vdotDistances = [6]float64{
	Distance1500m, Distance1Mile, Distance5K, Distance10K, DistanceHalfMara, DistanceMarathon,
}

type vdotRow struct {
	vdot  float64
	times [6]float64 // seconds, one per vdotDistances entry
}

// vdotTable is the Daniels race-equivalence table, slowest first
var vdotTable = []vdotRow{
	{30, [6]float64{510, 552, 1860, 3876, 8388, 17496}},
	{31, [6]float64{496, 536, 1806, 3762, 8136, 16980}},
	{32, [6]float64{482, 521, 1752, 3654, 7896, 16488}},
	{33, [6]float64{469, 507, 1704, 3552, 7674, 16020}},
	{34, [6]float64{457, 494, 1656, 3450, 7458, 15570}},
	{35, [6]float64{445, 481, 1614, 3360, 7254, 15138}},
	{36, [6]float64{434, 469, 1572, 3270, 7062, 14730}},
	{37, [6]float64{423, 457, 1530, 3186, 6876, 14334}},
	{38, [6]float64{413, 446, 1494, 3102, 6702, 13956}},
	{39, [6]float64{403, 435, 1458, 3024, 6534, 13596}},
	{40, [6]float64{394, 425, 1422, 2952, 6372, 13248}},
	{41, [6]float64{385, 416, 1392, 2880, 6222, 12918}},
	{42, [6]float64{376, 406, 1356, 2814, 6078, 12600}},
	{43, [6]float64{368, 398, 1326, 2748, 5940, 12300}},
	{44, [6]float64{360, 389, 1296, 2688, 5802, 12006}},
	{45, [6]float64{352, 381, 1266, 2628, 5676, 11730}},
	{46, [6]float64{345, 373, 1242, 2568, 5550, 11460}},
	{47, [6]float64{338, 365, 1212, 2514, 5430, 11202}},
	{48, [6]float64{331, 358, 1188, 2460, 5316, 10956}},
	{49, [6]float64{324, 351, 1164, 2412, 5208, 10722}},
	{50, [6]float64{318, 344, 1140, 2364, 5100, 10494}},
	{51, [6]float64{312, 337, 1116, 2316, 4998, 10278}},
	{52, [6]float64{306, 331, 1098, 2274, 4902, 10068}},
	{53, [6]float64{300, 325, 1074, 2232, 4806, 9870}},
	{54, [6]float64{295, 319, 1056, 2190, 4716, 9678}},
	{55, [6]float64{290, 313, 1038, 2154, 4632, 9492}},
	{56, [6]float64{285, 308, 1020, 2112, 4548, 9312}},
	{57, [6]float64{280, 302, 1002, 2076, 4470, 9144}},
	{58, [6]float64{275, 297, 984, 2040, 4392, 8976}},
	{59, [6]float64{270, 292, 972, 2010, 4320, 8820}},
	{60, [6]float64{266, 288, 954, 1974, 4248, 8664}},
	{61, [6]float64{262, 283, 942, 1944, 4182, 8520}},
	{62, [6]float64{258, 279, 924, 1914, 4116, 8376}},
	{63, [6]float64{254, 274, 912, 1884, 4050, 8238}},
	{64, [6]float64{250, 270, 900, 1860, 3990, 8106}},
	{65, [6]float64{246, 266, 888, 1830, 3930, 7980}},
	{66, [6]float64{242, 262, 876, 1806, 3876, 7860}},
	{67, [6]float64{239, 258, 864, 1782, 3822, 7740}},
	{68, [6]float64{235, 254, 852, 1758, 3768, 7626}},
	{69, [6]float64{232, 251, 840, 1734, 3720, 7518}},
	{70, [6]float64{229, 247, 834, 1716, 3672, 7410}},
	{71, [6]float64{226, 244, 822, 1692, 3624, 7308}},
	{72, [6]float64{223, 241, 810, 1674, 3582, 7212}},
	{73, [6]float64{220, 238, 804, 1656, 3540, 7116}},
	{74, [6]float64{217, 235, 792, 1632, 3498, 7026}},
	{75, [6]float64{214, 232, 786, 1614, 3456, 6936}},
	{76, [6]float64{212, 229, 774, 1596, 3420, 6852}},
	{77, [6]float64{209, 226, 768, 1578, 3384, 6768}},
	{78, [6]float64{206, 223, 756, 1560, 3348, 6690}},
	{79, [6]float64{204, 221, 750, 1548, 3312, 6612}},
	{80, [6]float64{201, 218, 744, 1530, 3282, 6540}},
	{81, [6]float64{199, 215, 738, 1518, 3246, 6468}},
	{82, [6]float64{197, 213, 726, 1500, 3216, 6396}},
	{83, [6]float64{194, 210, 720, 1488, 3186, 6330}},
	{84, [6]float64{192, 208, 714, 1470, 3156, 6264}},
	{85, [6]float64{190, 206, 708, 1458, 3126, 6198}},
}

// VDOTEstimate turns a run of at least 1500 m into a VDOT-based VO2max
// estimate. Results outside the table clamp to its ends. Returns nil for
// shorter runs or a non-positive duration.
func VDOTEstimate(distanceMeters, durationSeconds float64) *VO2MaxEstimate {
	if distanceMeters < Distance1500m || durationSeconds <= 0 {
		return nil
	}

	// First row whose race time is at or under the effort
	i := sort.Search(len(vdotTable), func(i int) bool {
		return vdotTime(vdotTable[i], distanceMeters) <= durationSeconds
	})

	var v float64
	switch i {
	case 0:
		v = vdotTable[0].vdot
	case len(vdotTable):
		v = vdotTable[len(vdotTable)-1].vdot
	default:
		slow, fast := vdotTable[i-1], vdotTable[i]
		ts, tf := vdotTime(slow, distanceMeters), vdotTime(fast, distanceMeters)
		v = fast.vdot
		if ts != tf {
			v = slow.vdot + (ts-durationSeconds)/(ts-tf)*(fast.vdot-slow.vdot)
		}
	}
	v = round(v, 1)
	return &VO2MaxEstimate{Value: v, Source: VO2MaxVDOT, Label: vdotLabel(v)}
}

// vdotTime is the row's race time for a distance. Within 5% of a tabulated
// distance the column is used as is; otherwise time is interpolated on a
// log-log scale between the neighbouring columns.
func vdotTime(row vdotRow, distance float64) float64 {
	for i, d := range vdotDistances {
		if math.Abs(distance-d) <= d*0.05 {
			return row.times[i]
		}
	}

	hi := sort.SearchFloat64s(vdotDistances[:], distance)
	switch {
	case hi == 0:
		hi = 1
	case hi == len(vdotDistances):
		hi = len(vdotDistances) - 1
	}
	lo := hi - 1

	frac := math.Log(distance/vdotDistances[lo]) / math.Log(vdotDistances[hi]/vdotDistances[lo])
	return row.times[lo] * math.Pow(row.times[hi]/row.times[lo], frac)
}

func vdotLabel(vdot float64) string {
	switch {
	case vdot >= 75:
		return "Elite"
	case vdot >= 65:
		return "Highly Competitive"
	case vdot >= 55:
		return "Competitive"
	case vdot >= 45:
		return "Advanced Recreational"
	case vdot >= 38:
		return "Intermediate"
	case vdot >= 30:
		return "Beginner"
	default:
		return "Novice"
	}
}
