package rscoco

// Category resolution for closed (fixed) and open (grown on demand) category tables.

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSupercategory is used for categories that are created without a taxonomy.
const DefaultSupercategory = "None"

// Categories resolves category names to COCO category ids.
//
// A closed table only knows the categories it was created with. An open table allocates the next
// sequential id, starting at 1, the first time it sees a name.
type Categories struct {
	list   []Category
	byName map[string]int // Name to index in list.
	byID   map[int]int    // ID to index in list.
	open   bool
	nextID int
}

// NewClosedCategories returns a closed resolver for the given table.
func NewClosedCategories(table []Category) (*Categories, error) {
	c := &Categories{
		list:   make([]Category, 0, len(table)),
		byName: make(map[string]int, len(table)),
		byID:   make(map[int]int, len(table)),
	}
	for _, cat := range table {
		if _, dup := c.byID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", cat.ID)
		}
		if _, dup := c.byName[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category name %q", cat.Name)
		}
		c.add(cat)
	}
	return c, nil
}

// NewOpenCategories returns an empty open resolver.
func NewOpenCategories() *Categories {
	return &Categories{
		byName: make(map[string]int),
		byID:   make(map[int]int),
		open:   true,
		nextID: 1,
	}
}

func (c *Categories) add(cat Category) {
	c.byName[cat.Name] = len(c.list)
	c.byID[cat.ID] = len(c.list)
	c.list = append(c.list, cat)
	if cat.ID >= c.nextID {
		c.nextID = cat.ID + 1
	}
}

// Resolve returns the id for the category name. For an open table a new category is created if
// necessary, so ok is always true. For a closed table ok is false for unknown names.
//
// Resolving the same name again returns the same id and never grows the table.
func (c *Categories) Resolve(name string) (id int, ok bool) {
	if i, found := c.byName[name]; found {
		return c.list[i].ID, true
	}
	if !c.open {
		return 0, false
	}

	cat := Category{ID: c.nextID, Name: name, Supercategory: DefaultSupercategory}
	c.add(cat)
	return cat.ID, true
}

// Has returns whether a category with id exists.
func (c *Categories) Has(id int) bool {
	_, found := c.byID[id]
	return found
}

// Len returns the number of categories.
func (c *Categories) Len() int {
	return len(c.list)
}

// List returns a copy of the categories in the order they were added.
func (c *Categories) List() []Category {
	list := make([]Category, len(c.list))
	copy(list, c.list)
	return list
}

// LoadCategoryFile reads a closed category table from a text file with one "id:name" entry per
// line, as distributed with xView. Quotes around names are removed and blank lines are ignored.
func LoadCategoryFile(path string) (*Categories, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	table := make([]Category, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens := strings.SplitN(line, ":", 2)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%s:%d: expected \"id:name\", got %q", path, i+1, line)
		}
		id, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid category id: %w", path, i+1, err)
		}
		name := strings.TrimSpace(strings.NewReplacer("'", "", "\"", "").Replace(tokens[1]))

		table = append(table, Category{ID: id, Name: name, Supercategory: DefaultSupercategory})
	}

	return NewClosedCategories(table)
}
