package cache

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys a layout result by document hash and layout options.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	// ExportKey keys a rendered export by layout hash and format.
	ExportKey(layoutHash string, opts ExportKeyOpts) string
}

// LayoutKeyOpts holds the inputs that change a layout besides the document.
type LayoutKeyOpts struct {
	Orientation string `json:"orientation"`
	Placer      string `json:"placer"`
}

// ExportKeyOpts holds the inputs that change an export besides the layout.
type ExportKeyOpts struct {
	Format  string `json:"format"`
	Palette string `json:"palette"`
}

// DefaultKeyer produces unscoped keys of the form kind:sha256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ExportKey implements Keyer.
func (DefaultKeyer) ExportKey(layoutHash string, opts ExportKeyOpts) string {
	return hashKey("export", layoutHash, opts)
}
