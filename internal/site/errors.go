package site

import "errors"

// Sentinel errors for registration.
var (
	ErrInvalidDirectiveName = errors.New("invalid directive name")
	ErrDuplicateDirective   = errors.New("directive already registered")
	ErrDuplicateConfigValue = errors.New("config value already registered")
	ErrUnknownExtension     = errors.New("unknown extension")
	ErrExtensionSetup       = errors.New("extension setup failed")
	ErrConfigInit           = errors.New("config-inited hook failed")
)

// Sentinel errors for directive blocks.
var (
	ErrUnknownDirective  = errors.New("unknown directive type")
	ErrDirectiveArgument = errors.New("invalid directive arguments")
	ErrDirectiveContent  = errors.New("directive does not accept content")
	ErrDirectivePanic    = errors.New("directive panicked")
)

// Sentinel errors for builds.
var (
	ErrSourceDir  = errors.New("source directory is not readable")
	ErrNoSources  = errors.New("no Markdown sources found")
	ErrReadSource = errors.New("failed to read source file")
	ErrRenderPage = errors.New("failed to render page")
	ErrWritePage  = errors.New("failed to write page")
	ErrCopyStatic = errors.New("failed to copy static file")
	ErrLoadAssets = errors.New("failed to load page assets")
)
