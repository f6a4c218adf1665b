package farm

// Ground is the terrain tag of a cell, independent of what's planted on it.
type Ground string

const (
	Dirt  Ground = "Dirt"
	Tiled Ground = "Tiled"
	Sand  Ground = "Sand"
	Water Ground = "Water"
	Stone Ground = "Stone"
)
