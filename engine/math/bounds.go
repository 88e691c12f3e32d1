package math

func NewBoundsMinMax(min, max Vec3) Bounds {
	return Bounds{
		Center:  min.Add(max).MulScalar(0.5),
		Extents: max.Sub(min).MulScalar(0.5),
	}
}

func (b Bounds) Min() Vec3 {
	return b.Center.Sub(b.Extents)
}

func (b Bounds) Max() Vec3 {
	return b.Center.Add(b.Extents)
}

func (b Bounds) Size() Vec3 {
	return b.Extents.MulScalar(2)
}

// Encapsulate grows the bounds to include point.
func (b Bounds) Encapsulate(point Vec3) Bounds {
	return NewBoundsMinMax(b.Min().Min(point), b.Max().Max(point))
}

// BoundsFromPoints returns the tightest bounds around points, or zero bounds for none.
func BoundsFromPoints(points []Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	return NewBoundsMinMax(min, max)
}

// Contains reports whether the integer rect fully contains other.
func (r RectInt) Contains(other RectInt) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.Width <= r.X+r.Width &&
		other.Y+other.Height <= r.Y+r.Height
}
