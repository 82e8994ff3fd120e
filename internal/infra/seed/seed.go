// Package seed holds the sample catalog loaded at start-up.
package seed

import "storefront/internal/domain/model"

func price(v int64) *int64 { return &v }

// Categories はID順（1始まり）で投入される前提
func Categories() []model.Category {
	return []model.Category{
		{Name: "Clothing", Slug: "clothing", ImageURL: "https://images.pexels.com/photos/298863/pexels-photo-298863.jpeg"},
		{Name: "Tableware", Slug: "tableware", ImageURL: "https://images.pexels.com/photos/7045694/pexels-photo-7045694.jpeg"},
		{Name: "Kitchen", Slug: "kitchen", ImageURL: "https://images.pexels.com/photos/3768162/pexels-photo-3768162.jpeg"},
		{Name: "Home Decor", Slug: "home-decor", ImageURL: "https://images.pexels.com/photos/2986011/pexels-photo-2986011.jpeg"},
	}
}

func Products() []model.Product {
	return []model.Product{
		{
			Name:        "Handwoven Basket",
			Slug:        "handwoven-basket",
			Description: "Beautifully crafted Rwandan basket made from natural sisal and sweetgrass.",
			Price:       15000,
			ImageURL:    "https://images.pexels.com/photos/1409937/pexels-photo-1409937.jpeg",
			CategoryID:  4,
			StockLevel:  25,
			IsNew:       true,
		},
		{
			Name:          "Ceramic Dinner Plate",
			Slug:          "ceramic-dinner-plate",
			Description:   "Locally made ceramic plate, ideal for modern table settings.",
			Price:         12000,
			DiscountPrice: price(10000),
			ImageURL:      "https://images.pexels.com/photos/1126728/pexels-photo-1126728.jpeg",
			CategoryID:    2,
			StockLevel:    40,
		},
		{
			Name:          "Woven Wall Art",
			Slug:          "woven-wall-art",
			Description:   "Traditional wall decor made from banana leaves and raffia.",
			Price:         20000,
			DiscountPrice: price(18000),
			ImageURL:      "https://images.pexels.com/photos/1166642/pexels-photo-1166642.jpeg",
			CategoryID:    4,
			StockLevel:    8,
			IsNew:         true,
		},
		{
			Name:        "Cooking Spoon Set",
			Slug:        "cooking-spoon-set",
			Description: "Hand-carved spoon set made from sustainable hardwood.",
			Price:       8000,
			ImageURL:    "https://images.pexels.com/photos/3952040/pexels-photo-3952040.jpeg",
			CategoryID:  3,
			StockLevel:  60,
		},
		{
			Name:          "Cotton Wrap Skirt",
			Slug:          "cotton-wrap-skirt",
			Description:   "Colorful African print skirt made from 100% cotton fabric.",
			Price:         22000,
			DiscountPrice: price(20000),
			ImageURL:      "https://images.pexels.com/photos/977659/pexels-photo-977659.jpeg",
			CategoryID:    1,
			StockLevel:    15,
			IsNew:         true,
		},
		{
			Name:          "Luxury Woven Blanket",
			Slug:          "luxury-woven-blanket",
			Description:   "Soft handwoven blanket crafted from local cotton, perfect for cozy evenings.",
			Price:         40000,
			DiscountPrice: price(35000),
			ImageURL:      "https://images.pexels.com/photos/1866149/pexels-photo-1866149.jpeg",
			CategoryID:    1,
			StockLevel:    5,
		},
		{
			Name:        "Handcrafted Teak Tray",
			Slug:        "handcrafted-teak-tray",
			Description: "Elegant serving tray made from polished teak wood.",
			Price:       25000,
			ImageURL:    "https://images.pexels.com/photos/5946733/pexels-photo-5946733.jpeg",
			CategoryID:  3,
			StockLevel:  12,
			IsNew:       true,
		},
		{
			Name:          "Gold-Trimmed Ceramic Bowl",
			Slug:          "gold-ceramic-bowl",
			Description:   "Luxury bowl with 24k gold trim, fired in small artisan batches.",
			Price:         30000,
			DiscountPrice: price(28000),
			ImageURL:      "https://images.pexels.com/photos/5638742/pexels-photo-5638742.jpeg",
			CategoryID:    2,
			StockLevel:    0,
		},
		{
			Name:          "Rwandan Coffee Gift Box",
			Slug:          "coffee-gift-box",
			Description:   "Premium Arabica coffee with handmade cup set, perfect for gifting.",
			Price:         35000,
			DiscountPrice: price(30000),
			ImageURL:      "https://images.pexels.com/photos/3394654/pexels-photo-3394654.jpeg",
			CategoryID:    4,
			StockLevel:    30,
			IsNew:         true,
		},
	}
}
