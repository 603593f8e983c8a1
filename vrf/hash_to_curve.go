package vrf

import (
	"errors"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/curve"
)

var errHashToCurve = errors.New("hash to curve produced no point")

// sswuZ is the smallest positive non-square of the base field.
var sswuZ = func() fp.Element {
	var z fp.Element
	for i := uint64(2); ; i++ {
		z.SetUint64(i)
		if z.Legendre() == -1 {
			return z
		}
	}
}()

// hashToCurve maps (pk, seed) to a curve point with the simplified SWU map. The returned hint
// is the sqrt_ratio output of RFC 9380: sqrt(g(x1)) when g(x1) is square, sqrt(Z*g(x1))
// otherwise. A verifier squares it to learn which abscissa was selected.
func hashToCurve(pk curve.Point, seed *felt.Felt) (curve.Point, *felt.Felt, error) {
	u := hashToField(pk, seed)
	x1 := sswuX1(&u)

	var zu2 fp.Element
	zu2.Square(&u).Mul(&zu2, &sswuZ)

	var x, y, hint fp.Element
	gx1 := curve.RHS(&x1)
	if root, ok := curve.Sqrt(gx1); ok {
		x, y, hint = x1, *root, *root
	} else {
		// Z*g(x1) is square, and Z*u^3 times its root is a root of g(Z*u^2*x1)
		var zgx1 fp.Element
		zgx1.Mul(&sswuZ, gx1)
		zroot, ok := curve.Sqrt(&zgx1)
		if !ok {
			return curve.Point{}, nil, errHashToCurve
		}
		hint = *zroot
		x.Mul(&zu2, &x1)
		y.Mul(&zu2, &u).Mul(&y, zroot)
	}
	if sgn0(&u) != sgn0(&y) {
		y.Neg(&y)
	}
	pt, err := curve.FromAffineElements(&x, &y)
	if err != nil {
		return curve.Point{}, nil, err
	}
	if pt.IsInfinity() {
		return curve.Point{}, nil, errHashToCurve
	}
	return pt, elementFelt(&hint), nil
}

func hashToField(pk curve.Point, seed *felt.Felt) fp.Element {
	px, py := pointFelts(pk)
	var u fp.Element
	u.SetBigInt(codec.ToBig(crypto.PoseidonArray(px, py, seed)))
	return u
}

// sswuX1 is the first candidate abscissa of the simplified SWU map for u.
func sswuX1(u *fp.Element) fp.Element {
	a := curve.Alpha()
	b := curve.Beta()

	var zu2, tv1 fp.Element
	zu2.Square(u).Mul(&zu2, &sswuZ)
	tv1.Square(&zu2).Add(&tv1, &zu2)

	var x1 fp.Element
	if tv1.IsZero() {
		var za fp.Element
		za.Mul(&sswuZ, &a)
		x1.Div(&b, &za)
		return x1
	}
	var inv, one, negBOverA fp.Element
	inv.Inverse(&tv1)
	one.SetOne()
	inv.Add(&inv, &one)
	negBOverA.Div(&b, &a).Neg(&negBOverA)
	return *x1.Mul(&negBOverA, &inv)
}

func sgn0(e *fp.Element) uint {
	var v big.Int
	return e.BigInt(&v).Bit(0)
}

func elementFelt(e *fp.Element) *felt.Felt {
	var v big.Int
	f, _ := codec.FromBig(e.BigInt(&v))
	return f
}

func pointFelts(p curve.Point) (*felt.Felt, *felt.Felt) {
	x, _ := codec.FromBig(p.X())
	y, _ := codec.FromBig(p.Y())
	return x, y
}
