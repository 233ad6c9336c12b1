// README: Geographic point shared by sessions, customers and fulfillment locations.
package types

type Point struct {
	Lat float64
	Lng float64
}

func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}
