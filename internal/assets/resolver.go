package assets

import "errors"

// AssetResolver tries each templates directory in order, then the
// embedded assets. Only "not found" errors fall through to the next
// loader.
type AssetResolver struct {
	custom   []AssetLoader
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver over the given directories.
// Without directories only embedded assets are used.
// Returns ErrInvalidBasePath if a directory is not readable.
func NewAssetResolver(dirs ...string) (*AssetResolver, error) {
	resolver := &AssetResolver{
		embedded: NewEmbeddedLoader(),
	}

	for _, dir := range dirs {
		fsLoader, err := NewFilesystemLoader(dir)
		if err != nil {
			return nil, err
		}
		resolver.custom = append(resolver.custom, fsLoader)
	}

	return resolver, nil
}

// LoadStyle loads a CSS theme, trying templates directories first.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(func(loader AssetLoader) (string, error) {
		return loader.LoadStyle(name)
	})
}

// LoadTemplate loads a page template, trying templates directories first.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.loadWithFallback(func(loader AssetLoader) (string, error) {
		return loader.LoadTemplate(name)
	})
}

func (r *AssetResolver) loadWithFallback(loadFn func(AssetLoader) (string, error)) (string, error) {
	for _, loader := range r.custom {
		content, err := loadFn(loader)
		if err == nil {
			return content, nil
		}
		if !isNotFoundError(err) {
			return "", err
		}
	}
	return loadFn(r.embedded)
}

// isNotFoundError checks if the error indicates the asset was not found.
func isNotFoundError(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}

// HasCustomLoader returns true if at least one templates directory is
// configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return len(r.custom) > 0
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
