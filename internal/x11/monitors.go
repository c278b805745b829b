package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display. Usable is the monitor area minus
// space reserved by docks and panels.
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
	Usable Area
}

// Area is a rectangle in root window coordinates.
type Area struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (a Area) intersect(b Area) Area {
	x1, y1 := max(a.X, b.X), max(a.Y, b.Y)
	x2, y2 := min(a.X+a.Width, b.X+b.Width), min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return Area{}
	}
	return Area{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (a Area) empty() bool {
	return a.Width <= 0 || a.Height <= 0
}

type edge int

const (
	edgeTop edge = iota
	edgeBottom
	edgeLeft
	edgeRight
)

// reservation is the strip of the root window a dock keeps for itself along
// one screen edge.
type reservation struct {
	edge edge
	area Area
}

// GetMonitors retrieves all active monitors using XRandR. When RandR reports
// nothing (Xvfb, some nested servers) the root window is returned as a single
// monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	rootW, rootH, err := c.rootSize()
	if err != nil {
		return nil, err
	}

	monitors, err := c.randrMonitors()
	if err != nil || len(monitors) == 0 {
		monitors = []Monitor{{ID: 0, Name: "root", Width: rootW, Height: rootH}}
	}

	reserved := c.dockReservations(rootW, rootH)
	for i := range monitors {
		monitors[i].Usable = workArea(monitors[i], reserved)
	}
	return monitors, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

func (c *Connection) rootSize() (int, int, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return int(geom.Width), int(geom.Height), nil
}

// PointerPosition returns the pointer location in root coordinates.
func (c *Connection) PointerPosition() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

// dockReservations collects the edge strips reserved by dock windows. Errors
// are ignored: a missing client list just means no panels are subtracted.
func (c *Connection) dockReservations(rootW, rootH int) []reservation {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}

	var out []reservation
	for _, win := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
		if err != nil || !hasAtom(types, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, win); err == nil {
			out = append(out, strutReservations(sp, rootW, rootH)...)
			continue
		}
		// Older docks only set _NET_WM_STRUT, which spans the whole edge.
		if s, err := ewmh.WmStrutGet(c.XUtil, win); err == nil {
			out = append(out, strutReservations(&ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootH - 1),
				RightEndY:  uint(rootH - 1),
				TopEndX:    uint(rootW - 1),
				BottomEndX: uint(rootW - 1),
			}, rootW, rootH)...)
		}
	}
	return out
}

// strutReservations converts a _NET_WM_STRUT_PARTIAL into root-relative
// strips. Start/end ranges are inclusive.
func strutReservations(sp *ewmh.WmStrutPartial, rootW, rootH int) []reservation {
	var out []reservation
	if sp.Top > 0 {
		out = append(out, reservation{edge: edgeTop, area: Area{
			X:      int(sp.TopStartX),
			Y:      0,
			Width:  int(sp.TopEndX) - int(sp.TopStartX) + 1,
			Height: int(sp.Top),
		}})
	}
	if sp.Bottom > 0 {
		out = append(out, reservation{edge: edgeBottom, area: Area{
			X:      int(sp.BottomStartX),
			Y:      rootH - int(sp.Bottom),
			Width:  int(sp.BottomEndX) - int(sp.BottomStartX) + 1,
			Height: int(sp.Bottom),
		}})
	}
	if sp.Left > 0 {
		out = append(out, reservation{edge: edgeLeft, area: Area{
			X:      0,
			Y:      int(sp.LeftStartY),
			Width:  int(sp.Left),
			Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1,
		}})
	}
	if sp.Right > 0 {
		out = append(out, reservation{edge: edgeRight, area: Area{
			X:      rootW - int(sp.Right),
			Y:      int(sp.RightStartY),
			Width:  int(sp.Right),
			Height: int(sp.RightEndY) - int(sp.RightStartY) + 1,
		}})
	}
	return out
}

// workArea shrinks a monitor by every reservation overlapping it. Only the
// overlapping part counts, so a panel on one monitor leaves its neighbour
// untouched.
func workArea(m Monitor, reserved []reservation) Area {
	full := Area{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}

	var top, bottom, left, right int
	for _, r := range reserved {
		hit := full.intersect(r.area)
		if hit.empty() {
			continue
		}
		switch r.edge {
		case edgeTop:
			top = max(top, hit.Y+hit.Height-full.Y)
		case edgeBottom:
			bottom = max(bottom, full.Y+full.Height-hit.Y)
		case edgeLeft:
			left = max(left, hit.X+hit.Width-full.X)
		case edgeRight:
			right = max(right, full.X+full.Width-hit.X)
		}
	}

	return Area{
		X:      full.X + left,
		Y:      full.Y + top,
		Width:  max(full.Width-left-right, 1),
		Height: max(full.Height-top-bottom, 1),
	}
}
