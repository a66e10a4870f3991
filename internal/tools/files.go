package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// CreateFolderCapability
// ---------------------------------------------------------------------------

type CreateFolderCapability struct{}

func NewCreateFolderCapability() *CreateFolderCapability { return &CreateFolderCapability{} }

func (c *CreateFolderCapability) Name() string        { return "create_folder" }
func (c *CreateFolderCapability) Description() string { return "Create a folder at the given path." }

func (c *CreateFolderCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	path, ok := stringArg(args, "path")
	if !ok {
		return "Error: path is required", nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Sprintf("Error creating folder %q: %v", path, err), nil
	}
	return fmt.Sprintf("Folder %q created.", path), nil
}

// ---------------------------------------------------------------------------
// CreateFileCapability
// ---------------------------------------------------------------------------

type CreateFileCapability struct{}

func NewCreateFileCapability() *CreateFileCapability { return &CreateFileCapability{} }

func (c *CreateFileCapability) Name() string        { return "create_file" }
func (c *CreateFileCapability) Description() string { return "Create an empty file at the given path." }

func (c *CreateFileCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	path, ok := stringArg(args, "path")
	if !ok {
		return "Error: path is required", nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("Error creating parent folder for %q: %v", path, err), nil
		}
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Sprintf("Error creating file %q: %v", path, err), nil
	}
	return fmt.Sprintf("File %q created.", path), nil
}

// ---------------------------------------------------------------------------
// WriteFileCapability
// ---------------------------------------------------------------------------

type WriteFileCapability struct{}

func NewWriteFileCapability() *WriteFileCapability { return &WriteFileCapability{} }

func (c *WriteFileCapability) Name() string        { return "write_file" }
func (c *WriteFileCapability) Description() string { return "Write content to a file." }

func (c *WriteFileCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	path, ok := stringArg(args, "path")
	if !ok {
		return "Error: path is required", nil
	}
	content, _ := args["content"].(string)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("Error creating parent folder for %q: %v", path, err), nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Sprintf("Error writing %q: %v", path, err), nil
	}
	return fmt.Sprintf("Wrote to %q.", path), nil
}

// ---------------------------------------------------------------------------
// ReadFileCapability
// ---------------------------------------------------------------------------

type ReadFileCapability struct{}

func NewReadFileCapability() *ReadFileCapability { return &ReadFileCapability{} }

func (c *ReadFileCapability) Name() string        { return "read_file" }
func (c *ReadFileCapability) Description() string { return "Read content from a file." }

func (c *ReadFileCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	path, ok := stringArg(args, "path")
	if !ok {
		return "Error: path is required", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("File %q not found.", path), nil
		}
		return fmt.Sprintf("Error reading %q: %v", path, err), nil
	}
	return fmt.Sprintf("Content of %q:\n%s", path, data), nil
}

// ---------------------------------------------------------------------------
// ListDirCapability
// ---------------------------------------------------------------------------

type ListDirCapability struct{}

func NewListDirCapability() *ListDirCapability { return &ListDirCapability{} }

func (c *ListDirCapability) Name() string        { return "list_directory" }
func (c *ListDirCapability) Description() string { return "List contents of a directory." }

func (c *ListDirCapability) Execute(_ context.Context, args map[string]any) (string, error) {
	path, ok := stringArg(args, "path")
	if !ok {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error listing directory %q: %v", path, err), nil
	}
	if len(entries) == 0 {
		return fmt.Sprintf("Directory %q is empty.", path), nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name()+"/")
		} else {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %q:\n", path)
	for _, n := range names {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
