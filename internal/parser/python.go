// # internal/parser/python.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: "python",
	}

	e.walk(root, source, file)

	return file, nil
}

func (e *PythonExtractor) walk(node *sitter.Node, source []byte, file *File) {
	switch node.Kind() {
	case "import_statement":
		e.extractImport(node, source, file)
	case "import_from_statement":
		e.extractFromImport(node, source, file)
	case "function_definition":
		e.extractFunction(node, source, file)
	case "class_definition":
		e.extractClass(node, source, file)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), source, file)
	}
}

func (e *PythonExtractor) extractImport(node *sitter.Node, source []byte, file *File) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			file.Imports = append(file.Imports, Import{
				Target:   e.getText(child, source),
				Location: e.getLocation(child),
			})
		case "aliased_import":
			// import x.y as z: the first dotted_name is the target.
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub.Kind() == "dotted_name" || sub.Kind() == "identifier" {
					file.Imports = append(file.Imports, Import{
						Target:   e.getText(sub, source),
						Location: e.getLocation(child),
					})
					break
				}
			}
		}
	}
}

func (e *PythonExtractor) extractFromImport(node *sitter.Node, source []byte, file *File) {
	var target string
	var items []string
	relative := 0

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "relative_import":
			relText := e.getText(child, source)
			target = strings.TrimLeft(relText, ".")
			relative = len(relText) - len(target)

		case "dotted_name", "identifier":
			if relative == 0 && target == "" {
				target = e.getText(child, source)
			} else {
				items = append(items, e.getText(child, source))
			}

		case "import_list", "aliased_import", "wildcard_import":
			e.collectItems(child, source, &items)
		}
	}

	file.Imports = append(file.Imports, Import{
		Target:   target,
		Items:    items,
		Relative: relative,
		Location: e.getLocation(node),
	})
}

func (e *PythonExtractor) collectItems(node *sitter.Node, source []byte, items *[]string) {
	kind := node.Kind()
	if kind == "identifier" || kind == "dotted_name" {
		*items = append(*items, e.getText(node, source))
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectItems(node.Child(i), source, items)
	}
}

func (e *PythonExtractor) extractFunction(node *sitter.Node, source []byte, file *File) {
	name := e.getChildText(node, "identifier", source)
	if name == "" {
		return
	}

	file.Symbols = append(file.Symbols, Symbol{
		Name:     name,
		Kind:     KindFunction,
		Exported: !strings.HasPrefix(name, "_"),
		Location: e.getLocation(node),
	})
}

func (e *PythonExtractor) extractClass(node *sitter.Node, source []byte, file *File) {
	name := e.getChildText(node, "identifier", source)
	if name == "" {
		return
	}

	file.Symbols = append(file.Symbols, Symbol{
		Name:     name,
		Kind:     KindClass,
		Exported: !strings.HasPrefix(name, "_"),
		Location: e.getLocation(node),
	})
}

func (e *PythonExtractor) getChildText(node *sitter.Node, kind string, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return e.getText(child, source)
		}
	}
	return ""
}

func (e *PythonExtractor) getLocation(node *sitter.Node) Location {
	return Location{
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (e *PythonExtractor) getText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
