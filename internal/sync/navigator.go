package sync

// Navigator abstracts the host application's routing. The coordinator
// calls Replace when the node it was asked to open is missing or when the
// open node is deleted out from under it.
type Navigator interface {
	Replace(path string)
}

// NopNavigator discards navigation. Headless embedders use it.
type NopNavigator struct{}

func (NopNavigator) Replace(string) {}
