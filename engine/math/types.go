package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

// Vec2Int is an integer 2D vector, used for pixel coordinates.
type Vec2Int struct {
	X, Y int32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Translation lives in elements 12, 13 and 14; vectors are multiplied as rows.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/** @brief Linear RGBA colour with float channels, normally in [0, 1]. */
type Color struct {
	R, G, B, A float32
}

/** @brief 8 bits per channel RGBA colour. */
type Color32 struct {
	R, G, B, A uint8
}

/** @brief A 2D rectangle defined by its minimum corner and size. */
type Rect struct {
	X, Y          float32
	Width, Height float32
}

/** @brief An integer rectangle, used for pixel regions. */
type RectInt struct {
	X, Y          int
	Width, Height int
}

/**
 * @brief Axis aligned bounding box described by a center and half extents.
 */
type Bounds struct {
	Center  Vec3
	Extents Vec3
}
