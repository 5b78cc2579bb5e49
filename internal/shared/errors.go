package shared

import "errors"

var (
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrStaleEditor occurs when a permission-editing form refers to a
	// load token that no longer matches the session editor.
	ErrStaleEditor = errors.New("stale editor state")
	// ErrCatalogUnavailable occurs when the role catalog failed to load and
	// the permission screen is degraded.
	ErrCatalogUnavailable = errors.New("role catalog unavailable")
)

// GenericErrorMessage is the single message shown for transport-level
// failures against the Mural API; causes are not distinguished.
const GenericErrorMessage = "Erro ao consultar os registros."
