package assets

import (
	"path/filepath"
	"strings"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindImage
	KindMaterial
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindMaterial:
		return "material"
	case KindModel:
		return "model"
	default:
		return "none"
	}
}

func kindOf(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return KindImage
	case ".mat":
		return KindMaterial
	case ".obj":
		return KindModel
	default:
		return KindNone
	}
}
