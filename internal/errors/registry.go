package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile Errors (D001-D019)
	// ============================================

	"D001": {
		Category: CategoryReconcile,
		Message:  "Unsupported node category",
	},
	"D002": {
		Category: CategoryMarker,
		Message:  "Unterminated island",
	},
	"D003": {
		Category: CategoryReconcile,
		Message:  "Trailing length mismatch",
		Detail:   "One side still had nodes after the edit script was exhausted. The destination was modified during the pass.",
	},
	"D004": {
		Category: CategoryReconcile,
		Message:  "Node outside range",
		Detail:   "The reference node for an insertion is not a sibling inside the range.",
	},

	// ============================================
	// Config Errors (D020-D039)
	// ============================================

	"D020": {
		Category: CategoryConfig,
		Message:  "Failed to read configuration",
	},
	"D021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration syntax",
	},
	"D022": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"D023": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
	},

	// ============================================
	// CLI Errors (D040-D059)
	// ============================================

	"D040": {
		Category: CategoryCLI,
		Message:  "Failed to read document",
	},
	"D041": {
		Category: CategoryCLI,
		Message:  "Invalid request body",
	},
	"D042": {
		Category: CategoryCLI,
		Message:  "Range marker not found",
		Detail:   "No comment node with the requested text exists in the host document.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
