// Package txt2img formats parameter sets for the Stable Diffusion txt2img
// script and runs it out of process.
package txt2img

import (
	"fmt"
	"strconv"
	"strings"

	"prompt-matrix/internal/models"
)

// Form defaults
const (
	DefaultSteps   = 10 // upstream default is 50
	DefaultScale   = 8  // upstream 7.5, rounded
	DefaultIter    = 1
	DefaultSamples = 1
	DefaultHeight  = 512
	DefaultWidth   = 512
	DefaultSeed    = 42

	MaxSteps   = 100
	MaxScale   = 20
	MaxIter    = 10
	MaxSamples = 10
	MaxSeed    = 4294967295
)

// Script is the txt2img entry point relative to the Stable Diffusion directory
const Script = "scripts/txt2img.py"

// DefaultParameters returns the form defaults for prompt
func DefaultParameters(prompt string) models.Parameters {
	return models.Parameters{
		Prompt:  prompt,
		Steps:   DefaultSteps,
		Scale:   DefaultScale,
		Iter:    DefaultIter,
		Samples: DefaultSamples,
		Height:  DefaultHeight,
		Width:   DefaultWidth,
		Seed:    DefaultSeed,
	}
}

// WithDefaults fills zero-valued fields of p from the form defaults. A zero
// seed counts as unset and becomes DefaultSeed.
func WithDefaults(p models.Parameters) models.Parameters {
	d := DefaultParameters(p.Prompt)
	if p.Steps == 0 {
		p.Steps = d.Steps
	}
	if p.Scale == 0 {
		p.Scale = d.Scale
	}
	if p.Iter == 0 {
		p.Iter = d.Iter
	}
	if p.Samples == 0 {
		p.Samples = d.Samples
	}
	if p.Height == 0 {
		p.Height = d.Height
	}
	if p.Width == 0 {
		p.Width = d.Width
	}
	if p.Seed == 0 {
		p.Seed = d.Seed
	}
	return p
}

// Args returns the txt2img flags for p in their fixed order, one value per
// element, ready for exec.
func Args(p models.Parameters) []string {
	return []string{
		"--plms",
		"--prompt", p.Prompt,
		"--n_samples", strconv.Itoa(p.Samples),
		"--scale", strconv.FormatFloat(p.Scale, 'f', -1, 64),
		"--n_iter", strconv.Itoa(p.Iter),
		"--ddim_steps", strconv.Itoa(p.Steps),
		"--H", strconv.Itoa(p.Height),
		"--W", strconv.Itoa(p.Width),
		"--seed", strconv.FormatInt(p.Seed, 10),
		"--fixed_code",
	}
}

// Params renders the txt2img flags for display. With html set each value is
// wrapped in <b></b>. The result is not shell-safe; Argv builds what runs.
func Params(p models.Parameters, html bool) string {
	args := Args(p)
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		// values sit between --plms and --fixed_code at even positions
		if i%2 == 1 || i == 0 || i == len(args)-1 {
			b.WriteString(a)
			continue
		}
		if html {
			a = "<b>" + a + "</b>"
		}
		if i == 2 {
			a = `"` + a + `"`
		}
		b.WriteString(a)
	}
	return b.String()
}

// Command renders the full command line for p, for display only
func Command(pythonPath string, p models.Parameters, html bool) string {
	return fmt.Sprintf("%s %s %s", pythonPath, Script, Params(p, html))
}
