package internal

import "math"

type GridPosition struct {
	GridX int `json:"gridX"`
	GridY int `json:"gridY"`
}

type StrokeType string

const (
	StrokePlace StrokeType = "place"
	StrokeErase StrokeType = "erase"
)

// Stroke is one batch of pixels from the drawer. Clients send coordinates in
// their own canvas space along with that canvas size.
type Stroke struct {
	Type         StrokeType     `json:"type"`
	Pixels       []GridPosition `json:"pixels"`
	Color        string         `json:"color,omitempty"`
	CanvasWidth  int            `json:"canvas_width,omitempty"`
	CanvasHeight int            `json:"canvas_height,omitempty"`
	Timestamp    int64          `json:"timestamp"`
}

const (
	CanvasWidth  = 35
	CanvasHeight = 20
)

func NormalizeCoordinates(x int, y int, clientCanvasWidth int, clientCanvasHeight int) (gridX int, gridY int) {
	if clientCanvasWidth <= 0 || clientCanvasHeight <= 0 {
		clientCanvasWidth, clientCanvasHeight = CanvasWidth, CanvasHeight
	}
	gridX = int(math.Floor(float64(x) * float64(CanvasWidth) / float64(clientCanvasWidth)))
	gridY = int(math.Floor(float64(y) * float64(CanvasHeight) / float64(clientCanvasHeight)))

	if gridX < 0 {
		gridX = 0
	} else if gridX >= CanvasWidth {
		gridX = CanvasWidth - 1
	}
	if gridY < 0 {
		gridY = 0
	} else if gridY >= CanvasHeight {
		gridY = CanvasHeight - 1
	}

	return
}

// Normalize maps every pixel onto the server grid and reports whether the
// stroke is worth relaying.
func (s *Stroke) Normalize() bool {
	if s.Type != StrokePlace && s.Type != StrokeErase {
		return false
	}
	for i, p := range s.Pixels {
		s.Pixels[i].GridX, s.Pixels[i].GridY = NormalizeCoordinates(p.GridX, p.GridY, s.CanvasWidth, s.CanvasHeight)
	}
	s.CanvasWidth, s.CanvasHeight = CanvasWidth, CanvasHeight
	return len(s.Pixels) > 0
}
