package mercado

import "testing"

func TestNormalizeTextIdempotent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Audífonos   Sony  WH-1000XM5 ", "audífonos sony wh-1000xm5"},
		{"UPPER\tCASE\nTEXT", "upper case text"},
		{"already normal", "already normal"},
	}

	for _, c := range cases {
		got := NormalizeText(c.in)
		if got != c.want {
			t.Errorf("NormalizeText(%q): got %q, want %q", c.in, got, c.want)
		}
		if again := NormalizeText(got); again != got {
			t.Errorf("NormalizeText not idempotent: %q → %q", got, again)
		}
	}
}

func TestNormalizeModelIdempotent(t *testing.T) {
	got := NormalizeModel("WH-1000 XM5")
	if got != "wh1000xm5" {
		t.Errorf("NormalizeModel: got %q, want %q", got, "wh1000xm5")
	}
	if again := NormalizeModel(got); again != got {
		t.Errorf("NormalizeModel not idempotent: %q → %q", got, again)
	}
}

func TestExtractProduct(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		brand     string
		model     string
		modelNorm string
		signature string
	}{
		{
			name:      "brand and model",
			in:        "Audífonos Sony WH-1000XM5 Negro",
			brand:     "sony",
			model:     "wh-1000xm5",
			modelNorm: "wh1000xm5",
			signature: "sony wh-1000xm5",
		},
		{
			name:      "model without known brand",
			in:        "bocina xb23 portátil",
			model:     "xb23",
			modelNorm: "xb23",
			signature: "xb23",
		},
		{
			name:      "brand without model",
			in:        "SAMSUNG Galaxy original",
			brand:     "samsung",
			signature: "samsung",
		},
		{
			name:      "neither falls back to raw description",
			in:        "  Bocina Bluetooth portátil azul ",
			signature: "Bocina Bluetooth portátil azul",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractProduct(c.in)
			if got.Brand != c.brand {
				t.Errorf("brand: got %q, want %q", got.Brand, c.brand)
			}
			if got.Model != c.model {
				t.Errorf("model: got %q, want %q", got.Model, c.model)
			}
			if got.ModelNorm != c.modelNorm {
				t.Errorf("model norm: got %q, want %q", got.ModelNorm, c.modelNorm)
			}
			if got.Signature != c.signature {
				t.Errorf("signature: got %q, want %q", got.Signature, c.signature)
			}
		})
	}
}

func TestExtractProductSignatureNeverEmpty(t *testing.T) {
	got := ExtractProduct("lámpara de escritorio")
	if got.Signature == "" {
		t.Error("signature must never be empty")
	}
}

func TestListingURL(t *testing.T) {
	cases := []struct {
		base      string
		signature string
		want      string
	}{
		{
			base:      "https://listado.mercadolibre.com.mx",
			signature: "sony wh-1000xm5",
			want:      "https://listado.mercadolibre.com.mx/sony-wh-1000xm5",
		},
		{
			base:      "https://listado.mercadolibre.com.mx/",
			signature: "  Bocina  JBL ",
			want:      "https://listado.mercadolibre.com.mx/bocina-jbl",
		},
	}

	for _, c := range cases {
		got := ListingURL(c.base, c.signature)
		if got != c.want {
			t.Errorf("ListingURL(%q, %q): got %q, want %q", c.base, c.signature, got, c.want)
		}
	}
}
