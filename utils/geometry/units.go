package geometry

// 单位换算，世界坐标以厘米为长度单位
const (
	MetersToCm = 100.0
	MphToCms   = 44.704
	KphToCms   = 27.77778
	MphToKph   = 1.609344
)

func CmsToMph(v float64) float64 {
	return v / MphToCms
}

func MphToCmPerSecond(v float64) float64 {
	return v * MphToCms
}
