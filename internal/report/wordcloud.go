// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	cloudWidth    = 1600
	cloudHeight   = 800
	cloudMargin   = 20
	cloudMaxWords = 100
	minFontSize   = 14
	maxFontSize   = 96
	minWordLen    = 3
)

var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		about above after again against all also and any are because been before
		being below between both but can could did does doing down during each
		few for from further had has have having her here hers herself him himself
		his how into its itself just more most not now off once only other our ours
		ourselves out over own same she should some such than that the their theirs
		them themselves then there these they this those through too under until
		very was were what when where which while who whom why will with would you
		your yours yourself yourselves may might must shall upon within without
		however thus therefore also et al fig figure table page vol pp doi http https www`) {
		stopWords[w] = true
	}
}

var cloudPalette = []color.RGBA{
	{0x1b, 0x4f, 0x72, 0xff},
	{0x21, 0x8f, 0x8d, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x5e, 0xc9, 0x62, 0xff},
	{0x44, 0x01, 0x54, 0xff},
}

// WordFrequencies counts lower-cased words of at least three letters,
// skipping common English stop words. It returns at most limit words,
// most frequent first.
func WordFrequencies(text string, limit int) []Count {
	m := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(w)) < minWordLen || stopWords[w] {
			continue
		}
		m[w]++
	}
	counts := sortCounts(m)
	if limit >= 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// WordCloud draws the corpus's most frequent words as a PNG, larger
// type for more frequent words. It writes nothing and returns false when
// the text has no countable words.
func WordCloud(path, text string) (bool, error) {
	words := WordFrequencies(text, cloudMaxWords)
	if len(words) == 0 {
		return false, nil
	}

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return false, fmt.Errorf("loading font: %w", err)
	}

	dc := gg.NewContext(cloudWidth, cloudHeight)
	dc.SetColor(color.White)
	dc.Clear()

	faces := make(map[int]font.Face)
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()
	face := func(size int) font.Face {
		if f, ok := faces[size]; ok {
			return f
		}
		f := truetype.NewFace(ttf, &truetype.Options{Size: float64(size)})
		faces[size] = f
		return f
	}

	top := float64(words[0].N)
	x, y := float64(cloudMargin), float64(cloudMargin)
	lineHeight := 0.0
	for i, w := range words {
		// Font size grows with the square root of frequency.
		size := minFontSize + int(math.Round((maxFontSize-minFontSize)*math.Sqrt(float64(w.N)/top)))
		dc.SetFontFace(face(size))
		tw, th := dc.MeasureString(w.Label)

		if x+tw > cloudWidth-cloudMargin && x > cloudMargin {
			x = cloudMargin
			y += lineHeight + 8
			lineHeight = 0
		}
		if y+th > cloudHeight-cloudMargin {
			break
		}

		dc.SetColor(cloudPalette[i%len(cloudPalette)])
		dc.DrawStringAnchored(w.Label, x, y, 0, 1)
		x += tw + 16
		lineHeight = max(lineHeight, th)
	}

	if err := dc.SavePNG(path); err != nil {
		return false, err
	}
	return true, nil
}
