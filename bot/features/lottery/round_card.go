package lottery

import (
	"bytes"
	"fmt"
	"time"

	"lbclottery/bot/common"
	"lbclottery/domain/events"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// RoundCardFileName is the attachment name the round end embed points at
const RoundCardFileName = "round.png"

// CardStyle defines the dimensions of a round card
type CardStyle struct {
	Width     int
	Height    int
	Padding   int
	RowHeight int
}

// cardRow is one label/value line on the card
type cardRow struct {
	Label    string
	Value    string
	ColorRGB [3]float64
}

// RoundCardGenerator renders round summary images
type RoundCardGenerator struct {
	style CardStyle
}

// NewRoundCardGenerator creates a generator with the default card style
func NewRoundCardGenerator() *RoundCardGenerator {
	return &RoundCardGenerator{
		style: CardStyle{
			Width:     360,
			Height:    180,
			Padding:   18,
			RowHeight: 30,
		},
	}
}

// GenerateRoundEndedCard renders the closing numbers of a finished round as a PNG
func (g *RoundCardGenerator) GenerateRoundEndedCard(event events.RoundEndedEvent) ([]byte, error) {
	rows := []cardRow{
		{Label: "Tickets sold", Value: common.FormatBalanceCompact(event.TicketsSold), ColorRGB: [3]float64{0.85, 0.85, 1.0}},
		{Label: "Prize pool", Value: common.FormatBalanceCompact(event.PrizePool), ColorRGB: [3]float64{0.4, 1.0, 0.4}},
		{Label: "Closed", Value: event.RoundDeadline.UTC().Format("2006-01-02 15:04 UTC"), ColorRGB: [3]float64{0.8, 0.8, 0.8}},
	}
	return g.render(fmt.Sprintf("Round #%d ended", event.Round), rows)
}

func (g *RoundCardGenerator) render(title string, rows []cardRow) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("Round card generation completed")
	}()

	// Title band + rows + bottom padding
	height := 50 + len(rows)*g.style.RowHeight + g.style.Padding
	if height < g.style.Height {
		height = g.style.Height
	}

	dc := gg.NewContext(g.style.Width, height)

	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1)
		dc.DrawLine(0, float64(i), float64(g.style.Width), float64(i))
		dc.Stroke()
	}

	titleFace, err := loadFont(gobold.TTF, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	face, err := loadFont(gomono.TTF, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// Title band
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, 0, float64(g.style.Width), 40)
	dc.Fill()

	dc.SetFontFace(titleFace)
	dc.SetRGB(1, 0.84, 0)
	drawSharpText(dc, title, float64(g.style.Padding), 26)

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, 40, float64(g.style.Width), 40)
	dc.Stroke()

	dc.SetFontFace(face)
	y := float64(50 + g.style.RowHeight/2)
	right := float64(g.style.Width - g.style.Padding)
	for _, row := range rows {
		dc.SetRGB(0.7, 0.7, 0.75)
		drawSharpText(dc, row.Label, float64(g.style.Padding), y)

		dc.SetRGB(row.ColorRGB[0], row.ColorRGB[1], row.ColorRGB[2])
		w, _ := dc.MeasureString(row.Value)
		drawSharpText(dc, row.Value, right-w, y)

		y += float64(g.style.RowHeight)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawSharpText draws text over a faint offset shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
