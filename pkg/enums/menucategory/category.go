package menucategory

import "strings"

type Category struct {
	Name string
}

func (c Category) Code() string {
	return c.Name
}

type Enum struct {
	Food  Category
	Drink Category
}

var Categories = Enum{
	Food:  Category{Name: "FOOD"},
	Drink: Category{Name: "DRINK"},
}

var All = []Category{
	Categories.Food,
	Categories.Drink,
}

// Parse accepts any casing and surrounding spaces.
func Parse(raw string) (Category, bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	for _, c := range All {
		if c.Name == value {
			return c, true
		}
	}
	return Category{}, false
}
