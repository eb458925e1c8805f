package workspace

import "fmt"

// ContainerRef identifies a bare tag (FolderID nil) or a folder within a tag.
// It is used both as a create target and as a move destination.
type ContainerRef struct {
	TagID    string  `json:"tag_id"`
	FolderID *string `json:"folder_id,omitempty"`
}

func TagContainer(tagID string) ContainerRef {
	return ContainerRef{TagID: tagID}
}

func FolderContainer(tagID, folderID string) ContainerRef {
	return ContainerRef{TagID: tagID, FolderID: &folderID}
}

func (c ContainerRef) Equal(o ContainerRef) bool {
	return c.TagID == o.TagID && StringPtrEqual(c.FolderID, o.FolderID)
}

func (c ContainerRef) String() string {
	if c.FolderID == nil {
		return "tag:" + c.TagID
	}
	return fmt.Sprintf("tag:%s/folder:%s", c.TagID, *c.FolderID)
}

type NodeKind string

const (
	NodeKindTag    NodeKind = "tag"
	NodeKindFolder NodeKind = "folder"
	NodeKindPage   NodeKind = "page"
)

// NodeRef names a single entity in the forest.
type NodeRef struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

func TagNode(id string) NodeRef    { return NodeRef{Kind: NodeKindTag, ID: id} }
func FolderNode(id string) NodeRef { return NodeRef{Kind: NodeKindFolder, ID: id} }
func PageNode(id string) NodeRef   { return NodeRef{Kind: NodeKindPage, ID: id} }

func (n NodeRef) String() string { return string(n.Kind) + ":" + n.ID }

// ContainerNode returns the node that owns the container's page list.
func (c ContainerRef) ContainerNode() NodeRef {
	if c.FolderID != nil {
		return FolderNode(*c.FolderID)
	}
	return TagNode(c.TagID)
}

func StringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
