package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"cmcafe_back_end/internal/cache"
	"cmcafe_back_end/internal/cart"
	"cmcafe_back_end/internal/checkout"
	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/database"
	"cmcafe_back_end/internal/handlers"
	"cmcafe_back_end/internal/lifecycle"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/routes"
	"cmcafe_back_end/internal/store"
	"cmcafe_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/apple"
	"github.com/markbates/goth/providers/google"
	"github.com/stripe/stripe-go/v83"
)

func main() {
	config.Load()

	memoryMode := os.Getenv("STORE_BACKEND") == "memory"

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		if !memoryMode {
			log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
		}
		log.Println("⚠️ STRIPE_SECRET_KEY manquante — paiements indisponibles")
	} else {
		log.Println("✅ Stripe initialisé")
	}

	if !memoryMode {
		database.ConnectDatabases()
		defer database.CloseScylla()
	}

	initOAuthProviders()

	h := buildHandlers(memoryMode)

	r := gin.Default()
	routes.RegisterRoutes(r, h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Coimbatore Cafe lancé sur le port", port)
	r.Run(":" + port)
}

// buildHandlers câble les dépôts selon le backend : Scylla + Redis en
// production, tout en mémoire pour le développement local et les tests.
func buildHandlers(memoryMode bool) *handlers.Handlers {
	pricingCfg := config.Pricing()
	surcharges := models.DefaultSurcharges()

	var (
		products   store.ProductRepository
		categories store.CategoryRepository
		carts      store.CartRepository
		promos     store.PromotionRepository
		orders     store.OrderRepository
		tracking   store.TrackingRepository
		users      store.UserRepository
		wishlist   store.WishlistRepository
		locker     store.CartLocker
		attempts   checkout.AttemptStore
	)

	if memoryMode {
		log.Println("⚠️ Backend mémoire — aucune donnée ne survit au redémarrage")
		products = store.NewMemoryProductRepository()
		categories = store.NewMemoryCategoryRepository()
		carts = store.NewMemoryCartRepository()
		promos = store.NewMemoryPromotionRepository()
		orders = store.NewMemoryOrderRepository()
		tracking = store.NewMemoryTrackingRepository()
		users = store.NewMemoryUserRepository()
		wishlist = store.NewMemoryWishlistRepository()
		locker = store.NewMemoryCartLocker()
		attempts = checkout.NewMemoryAttemptStore()
	} else {
		products = cache.NewProductCache(store.NewScyllaProductRepository(database.GetCatalogSession))
		categories = store.NewScyllaCategoryRepository(database.GetCatalogSession)
		carts = store.NewRedisCartRepository(database.Redis)
		promos = store.NewScyllaPromotionRepository(database.GetOrdersSession)
		orders = store.NewScyllaOrderRepository(database.GetOrdersSession)
		tracking = store.NewScyllaTrackingRepository(database.GetOrdersSession)
		users = store.NewScyllaUserRepository(database.GetUsersSession)
		wishlist = store.NewScyllaWishlistRepository(database.GetUsersSession)
		locker = store.NewRedisCartLocker(database.Redis)
		attempts = checkout.NewRedisAttemptStore(database.Redis)
	}

	cartSvc := cart.NewService(products, carts, promos, locker, surcharges, pricingCfg)

	orchestrator := checkout.NewOrchestrator(cartSvc, promos, orders, tracking,
		attempts, checkout.NewStripeProvider(), pricingCfg.Currency).
		WithNotifier(utils.OrderMailer{})

	return &handlers.Handlers{
		Carts:      cartSvc,
		Checkout:   orchestrator,
		Lifecycle:  lifecycle.NewManager(orders, tracking),
		Products:   products,
		Categories: categories,
		Promos:     promos,
		Orders:     orders,
		Users:      users,
		Wishlist:   wishlist,
		Surcharges: surcharges,
	}
}

func initOAuthProviders() {
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "dev_session_secret"
		log.Println("⚠️ SESSION_SECRET manquant — valeur de développement utilisée")
	}

	cookieStore := sessions.NewCookieStore([]byte(sessionSecret))
	cookieStore.MaxAge(86400 * 30)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   false, // true en prod derrière HTTPS
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = cookieStore

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		if provider, ok := req.Context().Value(handlers.ProviderKey).(string); ok && provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	var providers []goth.Provider

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if googleClientID != "" && googleClientSecret != "" {
		providers = append(providers, google.New(
			googleClientID,
			googleClientSecret,
			baseURL+"/api/auth/google/callback",
		))
		log.Println("✅ Google OAuth activé")
	}

	appleClientID := os.Getenv("APPLE_CLIENT_ID")
	appleSecret := os.Getenv("APPLE_SECRET")
	if appleClientID != "" && appleSecret != "" {
		providers = append(providers, apple.New(
			appleClientID,
			appleSecret,
			baseURL+"/api/auth/apple/callback",
			nil,
			apple.ScopeName, apple.ScopeEmail,
		))
		log.Println("✅ Apple OAuth activé")
	}

	if len(providers) > 0 {
		goth.UseProviders(providers...)
	}
}
