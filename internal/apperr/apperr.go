package apperr

import (
	"errors"
	"net/http"
)

// Erreurs métier du cœur de la boutique. Chaque handler les traduit en
// code HTTP via StatusCode — pas de switch sur des strings dans les routes.
var (
	ErrValidation                = errors.New("données invalides")
	ErrNotFound                  = errors.New("ressource introuvable")
	ErrUnauthenticated           = errors.New("non authentifié")
	ErrEmptyCart                 = errors.New("panier vide")
	ErrProductUnavailable        = errors.New("produit indisponible")
	ErrInvalidQuantity           = errors.New("quantité invalide")
	ErrLineNotFound              = errors.New("ligne de panier introuvable")
	ErrPromotionRejected         = errors.New("code promo refusé")
	ErrInvalidTransition         = errors.New("transition de statut interdite")
	ErrOrderNotCancellable       = errors.New("commande non annulable")
	ErrPaymentProviderError      = errors.New("erreur du prestataire de paiement")
	ErrProviderTimeout           = errors.New("délai du prestataire de paiement dépassé")
	ErrPaymentVerificationFailed = errors.New("vérification du paiement échouée")
	ErrDuplicateCommit           = errors.New("paiement déjà enregistré")
	ErrConflict                  = errors.New("conflit de mise à jour")
)

// StatusCode mappe une erreur métier vers un code HTTP.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateCommit), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrProviderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrPaymentProviderError):
		return http.StatusBadGateway
	case errors.Is(err, ErrPaymentVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrProductUnavailable),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrPromotionRejected),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrOrderNotCancellable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
