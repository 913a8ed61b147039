package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SunlovingShadow/Ecom29112025/internal/cart"
	"github.com/SunlovingShadow/Ecom29112025/internal/coupon"
	"github.com/SunlovingShadow/Ecom29112025/internal/handler"
	"github.com/SunlovingShadow/Ecom29112025/internal/inventory"
	"github.com/SunlovingShadow/Ecom29112025/internal/order"
	"github.com/SunlovingShadow/Ecom29112025/internal/returns"
)

// NewRouter wires repositories, services and handlers onto a chi mux.
func NewRouter(pool *pgxpool.Pool) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	invRepo := inventory.NewRepository(pool)
	invSvc := inventory.NewService(invRepo)

	couponEngine := coupon.NewEngine(coupon.NewStore(pool))
	cartSource := cart.NewSource(pool)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo, cartSource, invSvc, couponEngine)

	returnsSvc := returns.NewService(returns.NewRepository(pool), orderSvc)

	orderHandler := handler.NewOrderHandler(orderSvc)
	invHandler := handler.NewInventoryHandler(invSvc)
	returnsHandler := handler.NewReturnsHandler(returnsSvc)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.GetAllOrders)
			r.Post("/{userID}", orderHandler.PlaceOrder)
			r.Get("/user/{userID}", orderHandler.GetUserOrders)
			r.Get("/{orderID}", orderHandler.GetOrderDetails)
			r.Post("/{orderID}/cancel", orderHandler.CancelOrder)
			r.Patch("/{orderID}/status", orderHandler.UpdateOrderStatus)
			r.Post("/{orderID}/pay", orderHandler.MarkOrderPaid)
		})

		r.Route("/inventory/{productID}", func(r chi.Router) {
			r.Get("/", invHandler.GetInventory)
			r.Put("/", invHandler.InitializeInventory)
			r.Post("/add", invHandler.AddStock)
			r.Post("/decrease", invHandler.DecreaseStock)
			r.Post("/reserve", invHandler.ReserveStock)
			r.Post("/release", invHandler.ReleaseReserved)
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/{userID}", returnsHandler.RequestReturn)
			r.Get("/{userID}", returnsHandler.GetUserReturns)
			r.Get("/{userID}/order/{orderID}", returnsHandler.GetReturnByOrder)
		})
	})

	return r
}
