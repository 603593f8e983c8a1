// Package curve exposes the Stark curve y^2 = x^3 + x + b over the Starknet field, with the
// generator used by Starknet accounts.
package curve

import (
	"errors"
	"fmt"
	"math/big"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// ErrNotOnCurve is returned when coordinates do not describe a curve point.
var ErrNotOnCurve = errors.New("point is not on the stark curve")

var (
	prime = fp.Modulus()
	order = fr.Modulus()

	alpha fp.Element
	beta  fp.Element

	generator starkcurve.G1Affine
)

func init() {
	alpha.SetOne()
	beta.SetBigInt(mustHex("6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89"))
	generator.X.SetBigInt(mustHex("1ef15c18599971b7beced415a40f0c7deacfd9b0d1819e03d723d8bc943cfca"))
	generator.Y.SetBigInt(mustHex("5668060aa49730b7be4801df46ec62de53ecd11abe43a32873000c36e8dc1f"))
	if !generator.IsOnCurve() {
		panic("stark curve generator is not on the curve")
	}
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid curve constant " + s)
	}
	return v
}

// Prime returns the field characteristic P.
func Prime() *big.Int { return new(big.Int).Set(prime) }

// Order returns the order N of the generator.
func Order() *big.Int { return new(big.Int).Set(order) }

// Point is an affine curve point. The zero value is the point at infinity.
type Point struct {
	p starkcurve.G1Affine
}

// Generator returns the Starknet generator G.
func Generator() Point { return Point{p: generator} }

// NewPoint validates (x, y) and returns the corresponding point.
func NewPoint(x, y *big.Int) (Point, error) {
	if x.Sign() < 0 || x.Cmp(prime) >= 0 || y.Sign() < 0 || y.Cmp(prime) >= 0 {
		return Point{}, fmt.Errorf("%w: coordinate out of field range", ErrNotOnCurve)
	}
	var pt Point
	pt.p.X.SetBigInt(x)
	pt.p.Y.SetBigInt(y)
	if !pt.p.IsOnCurve() || pt.IsInfinity() {
		return Point{}, ErrNotOnCurve
	}
	return pt, nil
}

// PointsFromX returns both points with abscissa x, ordered (y, P-y).
func PointsFromX(x *big.Int) (Point, Point, error) {
	if x.Sign() < 0 || x.Cmp(prime) >= 0 {
		return Point{}, Point{}, fmt.Errorf("%w: abscissa out of field range", ErrNotOnCurve)
	}
	var fx fp.Element
	fx.SetBigInt(x)
	y, ok := Sqrt(RHS(&fx))
	if !ok {
		return Point{}, Point{}, ErrNotOnCurve
	}
	pos := Point{}
	pos.p.X.Set(&fx)
	pos.p.Y.Set(y)
	neg := pos.Neg()
	return pos, neg, nil
}

// RHS evaluates x^3 + alpha*x + beta.
func RHS(x *fp.Element) *fp.Element {
	var res, ax fp.Element
	res.Square(x).Mul(&res, x)
	ax.Mul(&alpha, x)
	res.Add(&res, &ax).Add(&res, &beta)
	return &res
}

// Alpha returns the curve coefficient a.
func Alpha() fp.Element { return alpha }

// Beta returns the curve coefficient b.
func Beta() fp.Element { return beta }

// Sqrt returns a square root of a and whether one exists.
func Sqrt(a *fp.Element) (*fp.Element, bool) {
	var r fp.Element
	if r.Sqrt(a) == nil {
		return nil, false
	}
	return &r, true
}

// IsSquare reports whether a is a quadratic residue (zero included).
func IsSquare(a *fp.Element) bool {
	return a.Legendre() >= 0
}

// FromAffineElements builds a point from already reduced coordinates.
func FromAffineElements(x, y *fp.Element) (Point, error) {
	var pt Point
	pt.p.X.Set(x)
	pt.p.Y.Set(y)
	if !pt.p.IsOnCurve() {
		return Point{}, ErrNotOnCurve
	}
	return pt, nil
}

func (p Point) X() *big.Int {
	var v big.Int
	return p.p.X.BigInt(&v)
}

func (p Point) Y() *big.Int {
	var v big.Int
	return p.p.Y.BigInt(&v)
}

// Affine returns the gnark representation of p.
func (p Point) Affine() starkcurve.G1Affine {
	return p.p
}

func (p Point) IsInfinity() bool {
	return p.p.X.IsZero() && p.p.Y.IsZero()
}

func (p Point) IsOnCurve() bool {
	return p.IsInfinity() || p.p.IsOnCurve()
}

func (p Point) Equal(q Point) bool {
	return p.p.X.Equal(&q.p.X) && p.p.Y.Equal(&q.p.Y)
}

func (p Point) jac() starkcurve.G1Jac {
	var j starkcurve.G1Jac
	if p.IsInfinity() {
		j.X.SetOne()
		j.Y.SetOne()
		return j
	}
	j.FromAffine(&p.p)
	return j
}

func fromJac(j *starkcurve.G1Jac) Point {
	var pt Point
	if j.Z.IsZero() {
		return pt
	}
	pt.p.FromJacobian(j)
	return pt
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	a, b := p.jac(), q.jac()
	a.AddAssign(&b)
	return fromJac(&a)
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// Neg returns -p.
func (p Point) Neg() Point {
	if p.IsInfinity() {
		return p
	}
	out := p
	out.p.Y.Neg(&p.p.Y)
	return out
}

// Mul returns k*p. k is reduced modulo the group order.
func (p Point) Mul(k *big.Int) Point {
	s := new(big.Int).Mod(k, order)
	if s.Sign() == 0 || p.IsInfinity() {
		return Point{}
	}
	a := p.jac()
	var r starkcurve.G1Jac
	r.ScalarMultiplication(&a, s)
	return fromJac(&r)
}

// ScalarBaseMult returns k*G.
func ScalarBaseMult(k *big.Int) Point {
	return Generator().Mul(k)
}
