// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"math"
	"testing"
)

const eps = 1e-5

func near(a, b float32) bool { return math.Abs(float64(a-b)) < eps }

func nearV3(v, w V3) bool { return near(v[0], w[0]) && near(v[1], w[1]) && near(v[2], w[2]) }

func TestV(t *testing.T) {
	var u V3
	v := V3{1, 2, 4}
	w := V3{0, -1, 2}

	if u.Add(&v, &w); u != (V3{1, 1, 6}) {
		t.Fatalf("V3.Add\nhave %v\nwant [1 1 6]", u)
	}
	if u.Sub(&v, &w); u != (V3{1, 3, 2}) {
		t.Fatalf("V3.Sub\nhave %v\nwant [1 3 2]", u)
	}
	if u.Scale(-1, &v); u != (V3{-1, -2, -4}) {
		t.Fatalf("V3.Scale\nhave %v\nwant [-1 -2 -4]", u)
	}
	if d := v.Dot(&w); d != 6 {
		t.Fatalf("V3.Dot\nhave %v\nwant 6", d)
	}
	if l := v.Len(); l != float32(math.Sqrt(21)) {
		t.Fatalf("V3.Len\nhave %v\nwant %v", l, math.Sqrt(21))
	}

	v = V3{0, 0, -2}
	w = V3{0, 4, 0}
	if v.Norm(&v); v != (V3{0, 0, -1}) {
		t.Fatalf("V3.Norm\nhave %v\nwant [0 0 -1]", v)
	}
	if w.Norm(&w); w != (V3{0, 1, 0}) {
		t.Fatalf("V3.Norm\nhave %v\nwant [0 1 0]", w)
	}
	if u.Cross(&v, &w); u != (V3{1, 0, 0}) {
		t.Fatalf("V3.Cross\nhave %v\nwant [1 0 0]", u)
	}
	if u.Cross(&w, &v); u != (V3{-1, 0, 0}) {
		t.Fatalf("V3.Cross\nhave %v\nwant [-1 0 0]", u)
	}
	var z V3
	if u.Norm(&z); u != z {
		t.Fatalf("V3.Norm (zero)\nhave %v\nwant %v", u, z)
	}

	m := M3{
		{2, 0, 1},
		{1, 3, 2},
		{4, 2, 3},
	}
	v = V3{-1, 0, 1}
	if u.Mul(&m, &v); u != (V3{2, 2, 2}) {
		t.Fatalf("V3.Mul\nhave %v\nwant [2 2 2]", u)
	}
	m.I()
	if u.Mul(&m, &v); u != v {
		t.Fatalf("V3.Mul\nhave %v\nwant %v", u, v)
	}
}

func TestM(t *testing.T) {
	m := M4{
		{2, 0, 0, 0},
		{0, 4, 0, 0},
		{0, 0, 8, 0},
		{1, 2, 3, 1},
	}
	var n, p M4
	n.Invert(&m)
	p.Mul(&m, &n)
	var id M4
	id.I()
	for i := range p {
		for j := range p[i] {
			if !near(p[i][j], id[i][j]) {
				t.Fatalf("M4.Invert\nhave %v\nwant %v", p, id)
			}
		}
	}

	var tr M4
	tr.Transpose(&m)
	if tr[3][0] != 0 || tr[0][3] != 1 {
		t.Fatalf("M4.Transpose\nhave %v", tr)
	}
}

func TestPerspective(t *testing.T) {
	var m M4
	m.Perspective(math.Pi/2, 2, 1, 100)
	var v V4
	// A point on the near plane maps to depth -1.
	v.Mul(&m, &V4{0, 0, -1, 1})
	if d := v[2] / v[3]; !near(d, -1) {
		t.Fatalf("M4.Perspective: near depth\nhave %v\nwant -1", d)
	}
	v.Mul(&m, &V4{0, 0, -100, 1})
	if d := v[2] / v[3]; !near(d, 1) {
		t.Fatalf("M4.Perspective: far depth\nhave %v\nwant 1", d)
	}
	// With fovy = 90°, y = -z lands on the top edge.
	v.Mul(&m, &V4{0, 5, -5, 1})
	if y := v[1] / v[3]; !near(y, 1) {
		t.Fatalf("M4.Perspective: top edge\nhave %v\nwant 1", y)
	}
	// aspect = 2 halves x.
	v.Mul(&m, &V4{5, 0, -5, 1})
	if x := v[0] / v[3]; !near(x, 0.5) {
		t.Fatalf("M4.Perspective: aspect\nhave %v\nwant 0.5", x)
	}
}

func TestLookAt(t *testing.T) {
	var m M4
	eye := V3{0, 0, 10}
	m.LookAt(&eye, &V3{}, &V3{0, 1, 0})
	if p := m.Point(&V3{}); !nearV3(p, V3{0, 0, -10}) {
		t.Fatalf("M4.LookAt: origin\nhave %v\nwant [0 0 -10]", p)
	}
	if p := m.Point(&V3{1, 0, 0}); !nearV3(p, V3{1, 0, -10}) {
		t.Fatalf("M4.LookAt: +x\nhave %v\nwant [1 0 -10]", p)
	}
}

func TestQ(t *testing.T) {
	var q Q
	q.Rotate(math.Pi/2, &V3{1, 0, 0})
	var m M4
	m.Compose(&V3{1, 2, 3}, &q, &V3{1, 1, 1})
	// +y rotated about +x by 90° is +z.
	if p := m.Point(&V3{0, 1, 0}); !nearV3(p, V3{1, 2, 4}) {
		t.Fatalf("M4.Compose\nhave %v\nwant [1 2 4]", p)
	}

	var r, s Q
	r.Rotate(math.Pi/4, &V3{1, 0, 0})
	s.Mul(&r, &r)
	if !near(s.R, q.R) || !nearV3(s.V, q.V) {
		t.Fatalf("Q.Mul\nhave %v\nwant %v", s, q)
	}
	s.Mul(&s, &r)
	var w Q
	w.Rotate(3*math.Pi/4, &V3{1, 0, 0})
	if !near(s.R, w.R) || !nearV3(s.V, w.V) {
		t.Fatalf("Q.Mul (aliased)\nhave %v\nwant %v", s, w)
	}

	var id Q
	id.I()
	if m.Compose(&V3{}, &id, &V3{2, 2, 2}); m.Point(&V3{1, 1, 1}) != (V3{2, 2, 2}) {
		t.Fatalf("M4.Compose (scale)\nhave %v", m.Point(&V3{1, 1, 1}))
	}
}

func TestDecompose(t *testing.T) {
	var q Q
	q.Rotate(0.7, &V3{0, 1, 0})
	tr := V3{3, -2, 1}
	sc := V3{2, 3, 0.5}
	var m M4
	m.Compose(&tr, &q, &sc)

	t2, q2, s2 := m.Decompose()
	if !nearV3(t2, tr) {
		t.Fatalf("M4.Decompose: translation\nhave %v\nwant %v", t2, tr)
	}
	if !nearV3(s2, sc) {
		t.Fatalf("M4.Decompose: scale\nhave %v\nwant %v", s2, sc)
	}
	// q and -q are the same rotation.
	if q2.R*q.R < 0 {
		q2.V.Scale(-1, &q2.V)
		q2.R = -q2.R
	}
	if !near(q2.R, q.R) || !nearV3(q2.V, q.V) {
		t.Fatalf("M4.Decompose: rotation\nhave %v\nwant %v", q2, q)
	}

	for _, axis := range []V3{{1, 0, 0}, {0, 0, 1}} {
		q.Rotate(3, &axis)
		var rm M3
		rm.Rotate(&q)
		q2.FromM3(&rm)
		var rm2 M3
		rm2.Rotate(&q2)
		for i := range rm {
			if !nearV3(rm[i], rm2[i]) {
				t.Fatalf("Q.FromM3 (axis %v)\nhave %v\nwant %v", axis, rm2, rm)
			}
		}
	}
}
