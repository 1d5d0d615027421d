package enums

// ProductCategory is the catalog classification that decides how stock is
// scoped: dishes against a daily quota, beverages against a running balance.
type ProductCategory string

const (
	ProductCategoryDish     ProductCategory = "dish"
	ProductCategoryBeverage ProductCategory = "beverage"
)

var productCategories = newValueSet("product category", ProductCategoryDish, ProductCategoryBeverage)

func (p ProductCategory) String() string { return string(p) }

func (p ProductCategory) IsValid() bool { return productCategories.contains(p) }

func ParseProductCategory(value string) (ProductCategory, error) {
	return productCategories.parse(value)
}
