package document

import (
	"path/filepath"
	"strings"
)

// LanguageXML is the language of documents handled by the XML backend.
const LanguageXML = "xml"

// Language detection based on file extension
var extensionToLanguage = map[string]string{
	".xml":     LanguageXML,
	".dita":    LanguageXML,
	".ditamap": LanguageXML,
	".xhtml":   LanguageXML,
	".docbook": LanguageXML,
	".go":      "go",
	".py":      "python",
	".pyw":     "python",
	".js":      "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".jsx":     "javascript",
	".ts":      "typescript",
	".mts":     "typescript",
	".cts":     "typescript",
	".rs":      "rust",
	".rb":      "ruby",
	".java":    "java",
	".c":       "c",
	".h":       "c",
	".cpp":     "cpp",
	".cc":      "cpp",
	".cxx":     "cpp",
	".hpp":     "cpp",
	".hxx":     "cpp",
	".cs":      "csharp",
	".sh":      "bash",
	".bash":    "bash",
	".zsh":     "bash",
}

// DetectLanguage detects the document language from a filename. It returns ""
// for files no backend can open.
func DetectLanguage(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return ""
}

// builtinMarkupLabels returns display labels for the node types of a
// language.
func builtinMarkupLabels(lang string) map[string]string {
	switch lang {
	case LanguageXML:
		return map[string]string{
			"p":       "paragraph",
			"para":    "paragraph",
			"li":      "list item",
			"ol":      "ordered list",
			"ul":      "unordered list",
			"fig":     "figure",
			"figure":  "figure",
			"table":   "table",
			"section": "section",
			"chapter": "chapter",
			"topic":   "topic",
			"note":    "note",
		}
	case "go":
		return map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "type",
			"type_spec":            "type",
			"const_declaration":    "const",
			"var_declaration":      "var",
		}
	case "python":
		return map[string]string{
			"function_definition":  "function",
			"class_definition":     "class",
			"decorated_definition": "decorated",
		}
	case "javascript", "typescript":
		return map[string]string{
			"function_declaration":   "function",
			"function_expression":    "function",
			"arrow_function":         "function",
			"method_definition":      "method",
			"class_declaration":      "class",
			"export_statement":       "export",
			"lexical_declaration":    "const",
			"variable_declaration":   "var",
			"interface_declaration":  "interface",
			"type_alias_declaration": "type",
			"enum_declaration":       "enum",
		}
	case "rust":
		return map[string]string{
			"function_item":    "function",
			"impl_item":        "impl",
			"struct_item":      "struct",
			"enum_item":        "enum",
			"trait_item":       "trait",
			"mod_item":         "module",
			"const_item":       "const",
			"static_item":      "static",
			"type_item":        "type",
			"macro_definition": "macro",
		}
	case "java":
		return map[string]string{
			"method_declaration":      "method",
			"constructor_declaration": "constructor",
			"class_declaration":       "class",
			"interface_declaration":   "interface",
			"enum_declaration":        "enum",
			"field_declaration":       "field",
		}
	case "ruby":
		return map[string]string{
			"method":           "method",
			"singleton_method": "method",
			"class":            "class",
			"module":           "module",
		}
	case "c", "cpp":
		return map[string]string{
			"function_definition":  "function",
			"struct_specifier":     "struct",
			"class_specifier":      "class",
			"enum_specifier":       "enum",
			"namespace_definition": "namespace",
		}
	case "csharp":
		return map[string]string{
			"method_declaration":      "method",
			"constructor_declaration": "constructor",
			"class_declaration":       "class",
			"interface_declaration":   "interface",
			"struct_declaration":      "struct",
			"enum_declaration":        "enum",
			"property_declaration":    "property",
		}
	case "bash":
		return map[string]string{
			"function_definition": "function",
		}
	default:
		return map[string]string{}
	}
}

// mergeLabels layers overrides on top of base into a new map.
func mergeLabels(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
