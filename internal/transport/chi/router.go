package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of HTTP operations the router dispatches to.
type ServerInterface interface {
	// (POST /search)
	SearchProducts(w http.ResponseWriter, r *http.Request)
	// (GET /search)
	QuerySearchProducts(w http.ResponseWriter, r *http.Request, params SearchParams)
	// (GET /products/{id})
	GetProduct(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /products/{id})
	DeleteProduct(w http.ResponseWriter, r *http.Request, id string)
	// (POST /products/import)
	ImportProducts(w http.ResponseWriter, r *http.Request)
	// (GET /analytics)
	GetAnalytics(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ServerOptions configures HandlerWithOptions.
type ServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts si on a new chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ServerOptions{})
}

// HandlerWithOptions mounts si on opts.BaseRouter. Parameter binding failures go
// to opts.ErrorHandlerFunc, which defaults to a 400 ErrorResponse.
func HandlerWithOptions(si ServerInterface, opts ServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	b := binder{si: si, onError: opts.ErrorHandlerFunc}

	r.Post("/search", si.SearchProducts)
	r.Get("/search", b.querySearchProducts)
	r.Get("/products/{id}", b.withProductID(si.GetProduct))
	r.Delete("/products/{id}", b.withProductID(si.DeleteProduct))
	r.Post("/products/import", si.ImportProducts)
	r.Get("/analytics", si.GetAnalytics)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

// binder decodes path and query parameters before dispatching.
type binder struct {
	si      ServerInterface
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (b binder) withProductID(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			b.onError(w, r, &invalidParamError{param: "id", err: err})
			return
		}
		next(w, r, id)
	}
}

func (b binder) querySearchProducts(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	q := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"q", &params.Q},
		{"mode", &params.Mode},
		{"strategy", &params.Strategy},
		{"sort", &params.Sort},
		{"page", &params.Page},
		{"page_size", &params.PageSize},
		{"category", &params.Category},
		{"price_min", &params.PriceMin},
		{"price_max", &params.PriceMax},
		{"min_rating", &params.MinRating},
		{"in_stock_only", &params.InStockOnly},
	}
	for _, p := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			b.onError(w, r, &invalidParamError{param: p.name, err: err})
			return
		}
	}

	b.si.QuerySearchProducts(w, r, params)
}
