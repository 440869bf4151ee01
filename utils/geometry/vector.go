// 三维向量工具，基于mathgl的mgl64.Vec3
// 坐标系约定：Z轴向上，偏航角（yaw）以度为单位，从X轴正方向逆时针增大
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// SmallNumber 向量长度平方的零值阈值
	SmallNumber = 1e-8
	// KindaSmallNumber 分量级别的近零阈值
	KindaSmallNumber = 1e-4
)

var (
	ZAxis = mgl64.Vec3{0, 0, 1}
)

// SafeNormal 安全归一化
// 功能：返回向量的单位向量，长度过小时返回零向量而不是NaN
// 参数：v-输入向量
// 返回：单位向量或零向量
func SafeNormal(v mgl64.Vec3) mgl64.Vec3 {
	lenSqr := v.LenSqr()
	if lenSqr < SmallNumber {
		return mgl64.Vec3{}
	}
	if mgl64.FloatEqualThreshold(lenSqr, 1, SmallNumber) {
		return v
	}
	return v.Mul(1 / math.Sqrt(lenSqr))
}

// IsNearlyZero 判断向量是否各分量都接近0
func IsNearlyZero(v mgl64.Vec3) bool {
	return math.Abs(v.X()) <= KindaSmallNumber &&
		math.Abs(v.Y()) <= KindaSmallNumber &&
		math.Abs(v.Z()) <= KindaSmallNumber
}

// Distance 两点之间的欧氏距离
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// DistanceSquared 两点之间的欧氏距离的平方
func DistanceSquared(a, b mgl64.Vec3) float64 {
	return a.Sub(b).LenSqr()
}

// ForwardFromYaw 由偏航角（度）得到水平面内的前向单位向量
func ForwardFromYaw(yaw float64) mgl64.Vec3 {
	r := mgl64.DegToRad(yaw)
	return mgl64.Vec3{math.Cos(r), math.Sin(r), 0}
}

// YawOf 向量在水平面上的偏航角（度），范围(-180, 180]
func YawOf(v mgl64.Vec3) float64 {
	return mgl64.RadToDeg(math.Atan2(v.Y(), v.X()))
}

// NormalizeAxis 将角度（度）归一化到(-180, 180]
func NormalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// RotateAboutZ 绕Z轴旋转向量
// 参数：v-输入向量，degrees-旋转角度（度，逆时针为正）
func RotateAboutZ(v mgl64.Vec3, degrees float64) mgl64.Vec3 {
	return mgl64.Rotate3DZ(mgl64.DegToRad(degrees)).Mul3x1(v)
}

// ClosestPointOnSegment 线段上距离点p最近的点
// 功能：将点投影到线段ab上并截断到线段范围内
// 返回：最近点与投影比例t∈[0,1]
func ClosestPointOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	lenSqr := ab.LenSqr()
	if lenSqr < SmallNumber {
		return a, 0
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSqr, 0, 1)
	return a.Add(ab.Mul(t)), t
}

// Lerp 线性插值
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
