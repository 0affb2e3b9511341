package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/smilecare/clinic-scheduler/internal/model"
)

// Layout constants.
const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 80
	leftLabelsWidth = 70
	dayPaddingX     = 6
	totalDays       = 7
	minHourDefault  = 8
	maxHourDefault  = 19
)

// Color scheme.
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{222, 222, 222, 255}
	slotFreeColor  = color.RGBA{133, 193, 85, 220}
	slotTakenColor = color.RGBA{255, 182, 193, 255}
	slotTextColor  = color.RGBA{20, 24, 28, 230}
)

// WeekImage renders a dentist's slots for the week starting at weekStart
// (a Monday) into a PNG. Free slots are green, consumed ones pink.
func WeekImage(weekStart time.Time, slots []*model.Slot) ([]byte, error) {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	minHour, maxHour := hourBounds(slots)
	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDays
	gridHeight := float64(imageHeight - headerHeight)
	hourHeight := gridHeight / float64(maxHour-minHour+1)

	// Day columns and headers.
	for day := 0; day < totalDays; day++ {
		x := float64(leftLabelsWidth) + float64(day)*dayWidth

		if day%2 == 0 {
			dc.SetColor(evenDayColor)
		} else {
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(x, headerHeight, dayWidth, gridHeight)
		dc.Fill()

		date := weekStart.AddDate(0, 0, day)
		dc.SetColor(textColor)
		label := fmt.Sprintf("%s %02d.%02d", date.Weekday().String()[:3], date.Day(), int(date.Month()))
		dc.DrawStringAnchored(label, x+dayWidth/2, headerHeight/2, 0.5, 0.5)
	}

	// Hour labels and grid lines.
	for hour := minHour; hour <= maxHour; hour++ {
		y := float64(headerHeight) + float64(hour-minHour)*hourHeight

		dc.SetColor(hourLineColor)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hour), leftLabelsWidth/2, y+hourHeight/2, 0.5, 0.5)
	}

	// Slots.
	for _, slot := range slots {
		day := int(slot.StartsAt.Sub(weekStart).Hours() / 24)
		if day < 0 || day >= totalDays {
			continue
		}

		startOffset := float64(slot.StartsAt.Hour()-minHour) + float64(slot.StartsAt.Minute())/60
		duration := slot.EndsAt.Sub(slot.StartsAt).Hours()

		x := float64(leftLabelsWidth) + float64(day)*dayWidth + dayPaddingX
		y := float64(headerHeight) + startOffset*hourHeight
		h := duration * hourHeight

		if slot.IsAvailable {
			dc.SetColor(slotFreeColor)
		} else {
			dc.SetColor(slotTakenColor)
		}
		dc.DrawRoundedRectangle(x, y+1, dayWidth-2*dayPaddingX, h-2, 4)
		dc.Fill()

		dc.SetColor(slotTextColor)
		dc.DrawStringAnchored(slot.StartsAt.Format("15:04"), x+(dayWidth-2*dayPaddingX)/2, y+h/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}

	return buf.Bytes(), nil
}

// hourBounds picks the displayed hour range: the default business window,
// widened when slots fall outside it.
func hourBounds(slots []*model.Slot) (int, int) {
	minHour, maxHour := minHourDefault, maxHourDefault
	for _, slot := range slots {
		if h := slot.StartsAt.Hour(); h < minHour {
			minHour = h
		}
		if h := slot.EndsAt.Hour(); h > maxHour {
			maxHour = h
		}
	}
	return minHour, maxHour
}
