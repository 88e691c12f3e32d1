package metadata

import "strings"

// GraphicsFormat identifies a texel layout. Values match the native engine.
type GraphicsFormat int32

const (
	FormatNone                GraphicsFormat = 0
	FormatR8_SRGB             GraphicsFormat = 1
	FormatR8G8_SRGB           GraphicsFormat = 2
	FormatR8G8B8_SRGB         GraphicsFormat = 3
	FormatR8G8B8A8_SRGB       GraphicsFormat = 4
	FormatR8_UNorm            GraphicsFormat = 5
	FormatR8G8_UNorm          GraphicsFormat = 6
	FormatR8G8B8_UNorm        GraphicsFormat = 7
	FormatR8G8B8A8_UNorm      GraphicsFormat = 8
	FormatR8_SNorm            GraphicsFormat = 9
	FormatR8G8_SNorm          GraphicsFormat = 10
	FormatR8G8B8_SNorm        GraphicsFormat = 11
	FormatR8G8B8A8_SNorm      GraphicsFormat = 12
	FormatR8_UInt             GraphicsFormat = 13
	FormatR8G8_UInt           GraphicsFormat = 14
	FormatR8G8B8_UInt         GraphicsFormat = 15
	FormatR8G8B8A8_UInt       GraphicsFormat = 16
	FormatR8_SInt             GraphicsFormat = 17
	FormatR8G8_SInt           GraphicsFormat = 18
	FormatR8G8B8_SInt         GraphicsFormat = 19
	FormatR8G8B8A8_SInt       GraphicsFormat = 20
	FormatR16_UNorm           GraphicsFormat = 21
	FormatR16G16_UNorm        GraphicsFormat = 22
	FormatR16G16B16_UNorm     GraphicsFormat = 23
	FormatR16G16B16A16_UNorm  GraphicsFormat = 24
	FormatR16_SNorm           GraphicsFormat = 25
	FormatR16G16_SNorm        GraphicsFormat = 26
	FormatR16G16B16_SNorm     GraphicsFormat = 27
	FormatR16G16B16A16_SNorm  GraphicsFormat = 28
	FormatR16_UInt            GraphicsFormat = 29
	FormatR16G16_UInt         GraphicsFormat = 30
	FormatR16G16B16_UInt      GraphicsFormat = 31
	FormatR16G16B16A16_UInt   GraphicsFormat = 32
	FormatR16_SInt            GraphicsFormat = 33
	FormatR16G16_SInt         GraphicsFormat = 34
	FormatR16G16B16_SInt      GraphicsFormat = 35
	FormatR16G16B16A16_SInt   GraphicsFormat = 36
	FormatR32_UInt            GraphicsFormat = 37
	FormatR32G32_UInt         GraphicsFormat = 38
	FormatR32G32B32_UInt      GraphicsFormat = 39
	FormatR32G32B32A32_UInt   GraphicsFormat = 40
	FormatR32_SInt            GraphicsFormat = 41
	FormatR32G32_SInt         GraphicsFormat = 42
	FormatR32G32B32_SInt      GraphicsFormat = 43
	FormatR32G32B32A32_SInt   GraphicsFormat = 44
	FormatR16_SFloat          GraphicsFormat = 45
	FormatR16G16_SFloat       GraphicsFormat = 46
	FormatR16G16B16_SFloat    GraphicsFormat = 47
	FormatR16G16B16A16_SFloat GraphicsFormat = 48
	FormatR32_SFloat          GraphicsFormat = 49
	FormatR32G32_SFloat       GraphicsFormat = 50
	FormatR32G32B32_SFloat    GraphicsFormat = 51
	FormatR32G32B32A32_SFloat GraphicsFormat = 52
	FormatB8G8R8_SRGB         GraphicsFormat = 56
	FormatB8G8R8A8_SRGB       GraphicsFormat = 57
	FormatB8G8R8_UNorm        GraphicsFormat = 58
	FormatB8G8R8A8_UNorm      GraphicsFormat = 59
	FormatD16_UNorm           GraphicsFormat = 90
	FormatD24_UNorm           GraphicsFormat = 91
	FormatD24_UNorm_S8_UInt   GraphicsFormat = 92
	FormatD32_SFloat          GraphicsFormat = 93
	FormatD32_SFloat_S8_UInt  GraphicsFormat = 94
	FormatS8_UInt             GraphicsFormat = 95
)

// FormatKind is the numeric interpretation of a format's channels.
type FormatKind uint8

const (
	FormatKindNone FormatKind = iota
	FormatKindUNorm
	FormatKindSNorm
	FormatKindUInt
	FormatKindSInt
	FormatKindSFloat
	FormatKindSRGB
	FormatKindDepth
	FormatKindStencil
)

/** @brief Static properties of a GraphicsFormat. BlockSize is bytes per texel. */
type FormatInfo struct {
	Name        string
	BlockSize   int
	Components  int
	Kind        FormatKind
	SRGB        bool
	DepthBits   int
	StencilBits int
	BGR         bool
}

var formatInfos = map[GraphicsFormat]FormatInfo{
	FormatR8_SRGB:             {Name: "R8_SRGB", BlockSize: 1, Components: 1, Kind: FormatKindSRGB, SRGB: true},
	FormatR8G8_SRGB:           {Name: "R8G8_SRGB", BlockSize: 2, Components: 2, Kind: FormatKindSRGB, SRGB: true},
	FormatR8G8B8_SRGB:         {Name: "R8G8B8_SRGB", BlockSize: 3, Components: 3, Kind: FormatKindSRGB, SRGB: true},
	FormatR8G8B8A8_SRGB:       {Name: "R8G8B8A8_SRGB", BlockSize: 4, Components: 4, Kind: FormatKindSRGB, SRGB: true},
	FormatR8_UNorm:            {Name: "R8_UNorm", BlockSize: 1, Components: 1, Kind: FormatKindUNorm},
	FormatR8G8_UNorm:          {Name: "R8G8_UNorm", BlockSize: 2, Components: 2, Kind: FormatKindUNorm},
	FormatR8G8B8_UNorm:        {Name: "R8G8B8_UNorm", BlockSize: 3, Components: 3, Kind: FormatKindUNorm},
	FormatR8G8B8A8_UNorm:      {Name: "R8G8B8A8_UNorm", BlockSize: 4, Components: 4, Kind: FormatKindUNorm},
	FormatR8_SNorm:            {Name: "R8_SNorm", BlockSize: 1, Components: 1, Kind: FormatKindSNorm},
	FormatR8G8_SNorm:          {Name: "R8G8_SNorm", BlockSize: 2, Components: 2, Kind: FormatKindSNorm},
	FormatR8G8B8_SNorm:        {Name: "R8G8B8_SNorm", BlockSize: 3, Components: 3, Kind: FormatKindSNorm},
	FormatR8G8B8A8_SNorm:      {Name: "R8G8B8A8_SNorm", BlockSize: 4, Components: 4, Kind: FormatKindSNorm},
	FormatR8_UInt:             {Name: "R8_UInt", BlockSize: 1, Components: 1, Kind: FormatKindUInt},
	FormatR8G8_UInt:           {Name: "R8G8_UInt", BlockSize: 2, Components: 2, Kind: FormatKindUInt},
	FormatR8G8B8_UInt:         {Name: "R8G8B8_UInt", BlockSize: 3, Components: 3, Kind: FormatKindUInt},
	FormatR8G8B8A8_UInt:       {Name: "R8G8B8A8_UInt", BlockSize: 4, Components: 4, Kind: FormatKindUInt},
	FormatR8_SInt:             {Name: "R8_SInt", BlockSize: 1, Components: 1, Kind: FormatKindSInt},
	FormatR8G8_SInt:           {Name: "R8G8_SInt", BlockSize: 2, Components: 2, Kind: FormatKindSInt},
	FormatR8G8B8_SInt:         {Name: "R8G8B8_SInt", BlockSize: 3, Components: 3, Kind: FormatKindSInt},
	FormatR8G8B8A8_SInt:       {Name: "R8G8B8A8_SInt", BlockSize: 4, Components: 4, Kind: FormatKindSInt},
	FormatR16_UNorm:           {Name: "R16_UNorm", BlockSize: 2, Components: 1, Kind: FormatKindUNorm},
	FormatR16G16_UNorm:        {Name: "R16G16_UNorm", BlockSize: 4, Components: 2, Kind: FormatKindUNorm},
	FormatR16G16B16_UNorm:     {Name: "R16G16B16_UNorm", BlockSize: 6, Components: 3, Kind: FormatKindUNorm},
	FormatR16G16B16A16_UNorm:  {Name: "R16G16B16A16_UNorm", BlockSize: 8, Components: 4, Kind: FormatKindUNorm},
	FormatR16_SNorm:           {Name: "R16_SNorm", BlockSize: 2, Components: 1, Kind: FormatKindSNorm},
	FormatR16G16_SNorm:        {Name: "R16G16_SNorm", BlockSize: 4, Components: 2, Kind: FormatKindSNorm},
	FormatR16G16B16_SNorm:     {Name: "R16G16B16_SNorm", BlockSize: 6, Components: 3, Kind: FormatKindSNorm},
	FormatR16G16B16A16_SNorm:  {Name: "R16G16B16A16_SNorm", BlockSize: 8, Components: 4, Kind: FormatKindSNorm},
	FormatR16_UInt:            {Name: "R16_UInt", BlockSize: 2, Components: 1, Kind: FormatKindUInt},
	FormatR16G16_UInt:         {Name: "R16G16_UInt", BlockSize: 4, Components: 2, Kind: FormatKindUInt},
	FormatR16G16B16_UInt:      {Name: "R16G16B16_UInt", BlockSize: 6, Components: 3, Kind: FormatKindUInt},
	FormatR16G16B16A16_UInt:   {Name: "R16G16B16A16_UInt", BlockSize: 8, Components: 4, Kind: FormatKindUInt},
	FormatR16_SInt:            {Name: "R16_SInt", BlockSize: 2, Components: 1, Kind: FormatKindSInt},
	FormatR16G16_SInt:         {Name: "R16G16_SInt", BlockSize: 4, Components: 2, Kind: FormatKindSInt},
	FormatR16G16B16_SInt:      {Name: "R16G16B16_SInt", BlockSize: 6, Components: 3, Kind: FormatKindSInt},
	FormatR16G16B16A16_SInt:   {Name: "R16G16B16A16_SInt", BlockSize: 8, Components: 4, Kind: FormatKindSInt},
	FormatR32_UInt:            {Name: "R32_UInt", BlockSize: 4, Components: 1, Kind: FormatKindUInt},
	FormatR32G32_UInt:         {Name: "R32G32_UInt", BlockSize: 8, Components: 2, Kind: FormatKindUInt},
	FormatR32G32B32_UInt:      {Name: "R32G32B32_UInt", BlockSize: 12, Components: 3, Kind: FormatKindUInt},
	FormatR32G32B32A32_UInt:   {Name: "R32G32B32A32_UInt", BlockSize: 16, Components: 4, Kind: FormatKindUInt},
	FormatR32_SInt:            {Name: "R32_SInt", BlockSize: 4, Components: 1, Kind: FormatKindSInt},
	FormatR32G32_SInt:         {Name: "R32G32_SInt", BlockSize: 8, Components: 2, Kind: FormatKindSInt},
	FormatR32G32B32_SInt:      {Name: "R32G32B32_SInt", BlockSize: 12, Components: 3, Kind: FormatKindSInt},
	FormatR32G32B32A32_SInt:   {Name: "R32G32B32A32_SInt", BlockSize: 16, Components: 4, Kind: FormatKindSInt},
	FormatR16_SFloat:          {Name: "R16_SFloat", BlockSize: 2, Components: 1, Kind: FormatKindSFloat},
	FormatR16G16_SFloat:       {Name: "R16G16_SFloat", BlockSize: 4, Components: 2, Kind: FormatKindSFloat},
	FormatR16G16B16_SFloat:    {Name: "R16G16B16_SFloat", BlockSize: 6, Components: 3, Kind: FormatKindSFloat},
	FormatR16G16B16A16_SFloat: {Name: "R16G16B16A16_SFloat", BlockSize: 8, Components: 4, Kind: FormatKindSFloat},
	FormatR32_SFloat:          {Name: "R32_SFloat", BlockSize: 4, Components: 1, Kind: FormatKindSFloat},
	FormatR32G32_SFloat:       {Name: "R32G32_SFloat", BlockSize: 8, Components: 2, Kind: FormatKindSFloat},
	FormatR32G32B32_SFloat:    {Name: "R32G32B32_SFloat", BlockSize: 12, Components: 3, Kind: FormatKindSFloat},
	FormatR32G32B32A32_SFloat: {Name: "R32G32B32A32_SFloat", BlockSize: 16, Components: 4, Kind: FormatKindSFloat},
	FormatB8G8R8_SRGB:         {Name: "B8G8R8_SRGB", BlockSize: 3, Components: 3, Kind: FormatKindSRGB, SRGB: true, BGR: true},
	FormatB8G8R8A8_SRGB:       {Name: "B8G8R8A8_SRGB", BlockSize: 4, Components: 4, Kind: FormatKindSRGB, SRGB: true, BGR: true},
	FormatB8G8R8_UNorm:        {Name: "B8G8R8_UNorm", BlockSize: 3, Components: 3, Kind: FormatKindUNorm, BGR: true},
	FormatB8G8R8A8_UNorm:      {Name: "B8G8R8A8_UNorm", BlockSize: 4, Components: 4, Kind: FormatKindUNorm, BGR: true},
	FormatD16_UNorm:           {Name: "D16_UNorm", BlockSize: 2, Components: 1, Kind: FormatKindDepth, DepthBits: 16},
	FormatD24_UNorm:           {Name: "D24_UNorm", BlockSize: 4, Components: 1, Kind: FormatKindDepth, DepthBits: 24},
	FormatD24_UNorm_S8_UInt:   {Name: "D24_UNorm_S8_UInt", BlockSize: 4, Components: 2, Kind: FormatKindDepth, DepthBits: 24, StencilBits: 8},
	FormatD32_SFloat:          {Name: "D32_SFloat", BlockSize: 4, Components: 1, Kind: FormatKindDepth, DepthBits: 32},
	FormatD32_SFloat_S8_UInt:  {Name: "D32_SFloat_S8_UInt", BlockSize: 8, Components: 2, Kind: FormatKindDepth, DepthBits: 32, StencilBits: 8},
	FormatS8_UInt:             {Name: "S8_UInt", BlockSize: 1, Components: 1, Kind: FormatKindStencil, StencilBits: 8},
}

// Info returns the static properties of f. ok is false for FormatNone and unknown values.
func (f GraphicsFormat) Info() (FormatInfo, bool) {
	info, ok := formatInfos[f]
	return info, ok
}

func (f GraphicsFormat) String() string {
	if f == FormatNone {
		return "None"
	}
	if info, ok := formatInfos[f]; ok {
		return info.Name
	}
	return "Unknown"
}

// IsValid reports whether f is a known format other than None.
func (f GraphicsFormat) IsValid() bool {
	_, ok := formatInfos[f]
	return ok
}

func (f GraphicsFormat) IsSRGB() bool {
	return formatInfos[f].SRGB
}

func (f GraphicsFormat) IsDepthStencil() bool {
	info := formatInfos[f]
	return info.Kind == FormatKindDepth || info.Kind == FormatKindStencil
}

func (f GraphicsFormat) HasStencil() bool {
	return formatInfos[f].StencilBits > 0
}

func (f GraphicsFormat) DepthBits() int {
	return formatInfos[f].DepthBits
}

func (f GraphicsFormat) BlockSize() int {
	return formatInfos[f].BlockSize
}

func (f GraphicsFormat) ComponentCount() int {
	return formatInfos[f].Components
}

// ParseGraphicsFormat looks a format up by its native name, ignoring case.
func ParseGraphicsFormat(name string) (GraphicsFormat, bool) {
	if strings.EqualFold(name, "None") {
		return FormatNone, true
	}
	for f, info := range formatInfos {
		if strings.EqualFold(info.Name, name) {
			return f, true
		}
	}
	return FormatNone, false
}

// AllGraphicsFormats lists every known format except None, in ascending value order.
func AllGraphicsFormats() []GraphicsFormat {
	out := make([]GraphicsFormat, 0, len(formatInfos))
	for f := GraphicsFormat(1); f <= FormatS8_UInt; f++ {
		if _, ok := formatInfos[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// SRGBVariant returns the sRGB or linear counterpart of f when one exists, otherwise f.
func (f GraphicsFormat) SRGBVariant(srgb bool) GraphicsFormat {
	pairs := map[GraphicsFormat]GraphicsFormat{
		FormatR8_SRGB:       FormatR8_UNorm,
		FormatR8G8_SRGB:     FormatR8G8_UNorm,
		FormatR8G8B8_SRGB:   FormatR8G8B8_UNorm,
		FormatR8G8B8A8_SRGB: FormatR8G8B8A8_UNorm,
		FormatB8G8R8_SRGB:   FormatB8G8R8_UNorm,
		FormatB8G8R8A8_SRGB: FormatB8G8R8A8_UNorm,
	}
	if srgb {
		for s, l := range pairs {
			if l == f {
				return s
			}
		}
		return f
	}
	if l, ok := pairs[f]; ok {
		return l
	}
	return f
}
