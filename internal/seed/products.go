// Package seed 演示数据，只由 seed 命令加载
package seed

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"healthloop/internal/model"
)

var productNamespace = uuid.MustParse("6f1c2a4e-8d3b-4b7a-9c51-2e0f7a9d4c10")

// ProductID 按名称生成固定 ID，重复 seed 不会让购物车中的商品失效
func ProductID(name string) string {
	return uuid.NewSHA1(productNamespace, []byte(name)).String()
}

// DemoProducts 演示餐品
func DemoProducts() []*model.Product {
	products := []*model.Product{
		{
			Name:        "Plan Keto Completo",
			Description: "Comida baja en carbohidratos, alta en proteínas y grasas saludables. Perfecta para mantener cetosis.",
			Price:       decimal.RequireFromString("18.99"),
			DietType:    model.DietKeto,
			ImageURL:    "https://images.unsplash.com/photo-1542814880-7e62cf14b7c8",
			Calories:    450,
			Ingredients: []string{"Salmón", "Aguacate", "Brócoli", "Aceite de oliva", "Almendras"},
			Allergens:   []string{"Pescado", "Frutos secos"},
		},
		{
			Name:        "Bowl Mediterráneo",
			Description: "Inspirado en la dieta mediterránea tradicional con ingredientes frescos y saludables.",
			Price:       decimal.RequireFromString("16.50"),
			DietType:    model.DietMediterranean,
			ImageURL:    "https://images.unsplash.com/photo-1653611540493-b3a896319fbf",
			Calories:    380,
			Ingredients: []string{"Quinoa", "Garbanzos", "Tomate", "Pepino", "Feta", "Aceitunas"},
			Allergens:   []string{"Lácteos"},
		},
		{
			Name:        "Buddha Bowl Vegano",
			Description: "Colorido bowl 100% vegano con proteínas vegetales y superalimentos.",
			Price:       decimal.RequireFromString("15.75"),
			DietType:    model.DietVegan,
			ImageURL:    "https://images.unsplash.com/photo-1512621776951-a57141f2eefd",
			Calories:    320,
			Ingredients: []string{"Tofu", "Quinoa", "Kale", "Zanahoria", "Hummus", "Semillas de chía"},
			Allergens:   []string{"Soja"},
		},
		{
			Name:        "Ensalada Energética",
			Description: "Mezcla perfecta de vegetales frescos, proteínas magras y carbohidratos complejos.",
			Price:       decimal.RequireFromString("13.25"),
			DietType:    model.DietHealthy,
			ImageURL:    "https://images.unsplash.com/photo-1505253716362-afaea1d3d1af",
			Calories:    285,
			Ingredients: []string{"Pollo", "Espinaca", "Tomate cherry", "Aguacate", "Nueces"},
			Allergens:   []string{"Frutos secos"},
		},
		{
			Name:        "Wrap Keto Supremo",
			Description: "Wrap bajo en carbohidratos con tortilla de coliflor y relleno rico en grasas saludables.",
			Price:       decimal.RequireFromString("17.99"),
			DietType:    model.DietKeto,
			ImageURL:    "https://images.unsplash.com/photo-1508170754725-6e9a5cfbcabf",
			Calories:    520,
			Ingredients: []string{"Tortilla de coliflor", "Salmón ahumado", "Queso crema", "Espinaca", "Pepino"},
			Allergens:   []string{"Pescado", "Lácteos"},
		},
	}
	for _, p := range products {
		p.ID = ProductID(p.Name)
	}
	return products
}
