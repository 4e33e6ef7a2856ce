package validate

// Resource is a registry node for one declared publication resource.
// Identity never changes after registration; ID sets grow as content
// documents are scanned.
type Resource struct {
	URL           string // container-rooted path, or absolute URL for remote resources
	MimeType      string
	InSpine       bool
	SpinePosition int // index within the spine, -1 when not a spine item
	Linear        bool
	IsNav         bool
	IsCoverImage  bool
	IsNCX         bool

	// HasCoreMediaTypeFallback caches the manifest fallback-chain walk.
	HasCoreMediaTypeFallback bool

	ids       []string // insertion order = document order
	idIndex   map[string]int
	symbolIDs map[string]bool
}

// Registry is the authoritative node table for cross-reference validation.
type Registry struct {
	resources map[string]*Resource

	// fallback adjacency over manifest item ids, for chain walks.
	fallbacks  map[string]string
	mediaTypes map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources:  make(map[string]*Resource),
		fallbacks:  make(map[string]string),
		mediaTypes: make(map[string]string),
	}
}

// RegisterResource inserts a node by canonical URL. Idempotent on URL
// collision: the first registration wins.
func (reg *Registry) RegisterResource(res *Resource) {
	if res.URL == "" {
		return
	}
	if _, ok := reg.resources[res.URL]; ok {
		return
	}
	res.idIndex = make(map[string]int)
	res.symbolIDs = make(map[string]bool)
	reg.resources[res.URL] = res
}

// HasResource reports whether a resource is registered at url.
func (reg *Registry) HasResource(url string) bool {
	_, ok := reg.resources[url]
	return ok
}

// Resource returns the node registered at url, or nil.
func (reg *Registry) Resource(url string) *Resource {
	return reg.resources[url]
}

// RegisterID appends id to the resource's ordered ID set. No-op when the
// resource is unregistered, the id is empty, or the id was already seen.
func (reg *Registry) RegisterID(url, id string) {
	res := reg.resources[url]
	if res == nil || id == "" {
		return
	}
	if _, ok := res.idIndex[id]; ok {
		return
	}
	res.idIndex[id] = len(res.ids)
	res.ids = append(res.ids, id)
}

// IDPosition returns the zero-based insertion index of id within the
// resource's ID set, or -1 if absent. Insertion order is document order,
// which the reading-order check depends on.
func (reg *Registry) IDPosition(url, id string) int {
	res := reg.resources[url]
	if res == nil {
		return -1
	}
	pos, ok := res.idIndex[id]
	if !ok {
		return -1
	}
	return pos
}

// HasID reports whether the resource declares the given id.
func (reg *Registry) HasID(url, id string) bool {
	return reg.IDPosition(url, id) >= 0
}

// RegisterSVGSymbolID marks an id as naming an SVG symbol element. Symbol
// ids exist in the document but are not valid hyperlink targets.
func (reg *Registry) RegisterSVGSymbolID(url, id string) {
	res := reg.resources[url]
	if res == nil || id == "" {
		return
	}
	res.symbolIDs[id] = true
}

// IsSVGSymbolID reports whether id names an SVG symbol in the resource.
func (reg *Registry) IsSVGSymbolID(url, id string) bool {
	res := reg.resources[url]
	if res == nil {
		return false
	}
	return res.symbolIDs[id]
}

// RegisterFallback records a manifest item's fallback edge and media type
// for chain-reachability walks.
func (reg *Registry) RegisterFallback(itemID, fallbackID, mediaType string) {
	if itemID == "" {
		return
	}
	reg.mediaTypes[itemID] = mediaType
	if fallbackID != "" {
		reg.fallbacks[itemID] = fallbackID
	}
}

// HasCoreMediaTypeFallback walks the fallback chain starting at itemID and
// reports whether any hop reaches a Core Media Type. A revisited id (cycle)
// or a missing hop terminates the walk with false; cycle reporting itself
// belongs to the reference checker.
func (reg *Registry) HasCoreMediaTypeFallback(itemID string) bool {
	visited := make(map[string]bool)
	current := itemID
	for {
		if visited[current] {
			return false
		}
		visited[current] = true
		if current != itemID && isCoreMediaType(reg.mediaTypes[current]) {
			return true
		}
		next, ok := reg.fallbacks[current]
		if !ok {
			return false
		}
		if _, known := reg.mediaTypes[next]; !known {
			return false
		}
		current = next
	}
}

// Resources returns all registered nodes. Iteration order is unspecified.
func (reg *Registry) Resources() []*Resource {
	out := make([]*Resource, 0, len(reg.resources))
	for _, res := range reg.resources {
		out = append(out, res)
	}
	return out
}
