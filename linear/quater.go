// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"github.com/chewxy/math32"
)

// Q is a quaternion of float32.
// The zero value is not a rotation; call I first.
type Q struct {
	V V3
	R float32
}

// I makes q an identity quaternion.
func (q *Q) I() { *q = Q{R: 1} }

// Mul sets q to contain l ⋅ r.
func (q *Q) Mul(l, r *Q) {
	var v, w V3
	v.Scale(r.R, &l.V)
	w.Scale(l.R, &r.V)
	v.Add(&v, &w)
	w.Cross(&l.V, &r.V)
	d := l.V.Dot(&r.V)
	lr := l.R * r.R
	q.V.Add(&v, &w)
	q.R = lr - d
}

// Rotate sets q to contain a rotation of angle radians
// about axis.
// axis must be a unit vector.
func (q *Q) Rotate(angle float32, axis *V3) {
	s, c := math32.Sincos(angle / 2)
	q.V.Scale(s, axis)
	q.R = c
}

// Norm sets q to contain r normalized.
func (q *Q) Norm(r *Q) {
	l := math32.Sqrt(r.V.Dot(&r.V) + r.R*r.R)
	q.V.Scale(1/l, &r.V)
	q.R = r.R / l
}

// FromM3 sets q to contain the rotation described by m.
// m must be a rotation matrix.
func (q *Q) FromM3(m *M3) {
	// m[col][row].
	m00, m11, m22 := m[0][0], m[1][1], m[2][2]
	switch tr := m00 + m11 + m22; {
	case tr > 0:
		s := 0.5 / math32.Sqrt(tr+1)
		q.R = 0.25 / s
		q.V = V3{(m[1][2] - m[2][1]) * s, (m[2][0] - m[0][2]) * s, (m[0][1] - m[1][0]) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math32.Sqrt(1+m00-m11-m22)
		q.R = (m[1][2] - m[2][1]) / s
		q.V = V3{0.25 * s, (m[1][0] + m[0][1]) / s, (m[2][0] + m[0][2]) / s}
	case m11 > m22:
		s := 2 * math32.Sqrt(1+m11-m00-m22)
		q.R = (m[2][0] - m[0][2]) / s
		q.V = V3{(m[1][0] + m[0][1]) / s, 0.25 * s, (m[2][1] + m[1][2]) / s}
	default:
		s := 2 * math32.Sqrt(1+m22-m00-m11)
		q.R = (m[0][1] - m[1][0]) / s
		q.V = V3{(m[2][0] + m[0][2]) / s, (m[2][1] + m[1][2]) / s, 0.25 * s}
	}
}
