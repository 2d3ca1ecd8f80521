// Package assets provides the page template and theme stylesheets of the
// generated site.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in page template and themes
//	    ├── FilesystemLoader  - one templates directory on disk
//	    └── AssetResolver     - templates directories first, embedded last
//
// A templates directory is flat: {dir}/{name}.html for page templates and
// {dir}/{name}.css for themes. Projects override the built-in page layout
// by placing page.html in one of their templates directories.
//
// # Security
//
// Asset names are validated to prevent path traversal.
// FilesystemLoader resolves symlinks and verifies paths stay within its
// directory.
package assets
