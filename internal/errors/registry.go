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
	// Reconciliation Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryInput,
		Message:  "Malformed virtual node",
		Detail:   "The virtual tree contains a node that cannot be materialized.",
	},
	"E101": {
		Category: CategoryInput,
		Message:  "Duplicate sibling key",
		Detail:   "Two children of the same element carry the same key. Keys must be unique among siblings.",
	},
	"E102": {
		Category: CategoryReconcile,
		Message:  "Virtual node is not mounted",
		Detail:   "The previous tree passed to Patch has no external node. Mount it first, or pass the tree returned by the last Patch.",
	},
	"E103": {
		Category: CategoryReconcile,
		Message:  "External node has no parent",
		Detail:   "Replacing a node requires its parent, but the node is detached from the document.",
	},
	"E104": {
		Category: CategoryReconcile,
		Message:  "Reconciliation already in progress",
		Detail:   "Mount and Patch must not be called while another pass on the same reconciler is running.",
	},
	"E105": {
		Category: CategoryDocument,
		Message:  "External tree mutation failed",
		Detail:   "The document rejected an operation. The external tree is left partially updated.",
	},
	"E106": {
		Category: CategoryInput,
		Message:  "Missing container",
		Detail:   "Mount needs a container node to append the root to.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No vsync.json was found in the directory or any of its parents.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or not one of the accepted options.",
	},

	// ============================================
	// Tree File Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryTreeFile,
		Message:  "Cannot read tree file",
		Detail:   "The tree file could not be opened.",
	},
	"E141": {
		Category: CategoryTreeFile,
		Message:  "Invalid tree file syntax",
		Detail:   "The tree file is not valid YAML or JSON.",
	},
	"E142": {
		Category: CategoryTreeFile,
		Message:  "Invalid tree node",
		Detail:   "A node must have either a tag or a text field.",
	},

	// ============================================
	// Protocol Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryProtocol,
		Message:  "Invalid mutation frame",
		Detail:   "The frame could not be decoded.",
	},
	"E161": {
		Category: CategoryProtocol,
		Message:  "Mutation replay failed",
		Detail:   "A decoded mutation references a node the replica does not know.",
	},

	// ============================================
	// CLI Errors (E180-E199)
	// ============================================

	"E180": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The live server stopped with an error.",
	},
	"E181": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command-line flag was given a value it does not accept.",
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
