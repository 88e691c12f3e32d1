package assets

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/texture"
)

// materialFile is the TOML layout of a .mat asset. Texture paths are
// relative to the directory of the material.
type materialFile struct {
	Name           string                `toml:"name"`
	Shader         string                `toml:"shader"`
	Colors         map[string][4]float32 `toml:"colors"`
	Vectors        map[string][4]float32 `toml:"vectors"`
	Floats         map[string]float32    `toml:"floats"`
	Ints           map[string]int32      `toml:"ints"`
	Textures       map[string]string     `toml:"textures"`
	LinearTextures []string              `toml:"linear_textures"`
}

func parseMaterial(data []byte) (*materialFile, error) {
	mf := &materialFile{}
	if err := toml.Unmarshal(data, mf); err != nil {
		return nil, core.InvalidArgument("cannot decode material: %s", err)
	}
	if err := mf.validate(); err != nil {
		return nil, err
	}
	return mf, nil
}

func (mf *materialFile) validate() error {
	if mf.Shader == "" {
		return core.InvalidArgument("shader name is required")
	}
	for prop, c := range mf.Colors {
		for _, v := range c {
			if v < 0 {
				return core.InvalidArgument("color %s has a negative channel", prop)
			}
		}
	}
	for prop, p := range mf.Textures {
		if p == "" {
			return core.InvalidArgument("texture %s has no path", prop)
		}
	}
	for _, prop := range mf.LinearTextures {
		if _, ok := mf.Textures[prop]; !ok {
			return core.InvalidArgument("linear texture %s is not bound", prop)
		}
	}
	return nil
}

func (mf *materialFile) isLinear(prop string) bool {
	for _, p := range mf.LinearTextures {
		if p == prop {
			return true
		}
	}
	return false
}

/** @brief A material together with the textures loaded for it. */
type MaterialAsset struct {
	Material *material.Material
	Textures map[string]*texture.Texture2D
}

// Destroy releases the material and every texture it owns.
func (ma *MaterialAsset) Destroy() error {
	var errs []error
	for _, t := range ma.Textures {
		errs = append(errs, t.Destroy())
	}
	if ma.Material != nil {
		errs = append(errs, ma.Material.Destroy())
	}
	return errors.Join(errs...)
}

/**
 * @brief Builds the material described by the .mat asset name, loading every
 * texture it binds. A failure destroys whatever was created before it.
 */
func (am *Manager) LoadMaterial(name string) (*MaterialAsset, error) {
	data, err := am.read(name, KindMaterial)
	if err != nil {
		return nil, err
	}
	mf, err := parseMaterial(data)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", name, err)
	}
	mat, err := material.New(am.backend, mf.Shader)
	if err != nil {
		return nil, err
	}
	mat.Name = mf.Name
	if mat.Name == "" {
		mat.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	ma := &MaterialAsset{Material: mat, Textures: make(map[string]*texture.Texture2D)}
	if err := am.bindMaterial(ma, mf, path.Dir(name)); err != nil {
		return nil, errors.Join(fmt.Errorf("asset %q: %w", name, err), ma.Destroy())
	}
	core.LogDebug("material %q loaded from %s", mat.Name, name)
	return ma, nil
}

func (am *Manager) bindMaterial(ma *MaterialAsset, mf *materialFile, dir string) error {
	mat := ma.Material
	for _, prop := range sortedKeys(mf.Colors) {
		c := mf.Colors[prop]
		if err := mat.SetColor(prop, math.NewColor(c[0], c[1], c[2], c[3])); err != nil {
			return err
		}
	}
	for _, prop := range sortedKeys(mf.Vectors) {
		v := mf.Vectors[prop]
		if err := mat.SetVector(prop, math.NewVec4(v[0], v[1], v[2], v[3])); err != nil {
			return err
		}
	}
	for _, prop := range sortedKeys(mf.Floats) {
		if err := mat.SetFloat(prop, mf.Floats[prop]); err != nil {
			return err
		}
	}
	for _, prop := range sortedKeys(mf.Ints) {
		if err := mat.SetInt(prop, mf.Ints[prop]); err != nil {
			return err
		}
	}
	for _, prop := range sortedKeys(mf.Textures) {
		texName := path.Join(dir, mf.Textures[prop])
		if texName == ".." || strings.HasPrefix(texName, "../") {
			return core.InvalidArgument("texture %s escapes the asset root", prop)
		}
		var opts []ImageOption
		if mf.isLinear(prop) {
			opts = append(opts, Linear())
		}
		tex, err := am.LoadTexture(texName, opts...)
		if err != nil {
			return err
		}
		ma.Textures[prop] = tex
		if err := mat.SetTexture(prop, tex); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
