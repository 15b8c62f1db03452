package api

import (
	"net/http"

	"taleloom/internal/tale"
)

// idBody is the request body for commands addressing a single entity.
type idBody struct {
	ID string `json:"id"`
}

// commands maps command names to their handlers. Navigation-only
// commands take no body; the rest decode a JSON payload.
var commands = map[string]func(*Server, *http.Request) error{
	"start-up":                 func(s *Server, r *http.Request) error { return s.ctrl.StartUp() },
	"complete-onboarding":      func(s *Server, r *http.Request) error { return s.ctrl.CompleteOnboarding() },
	"skip-onboarding":          func(s *Server, r *http.Request) error { return s.ctrl.SkipOnboarding() },
	"sign-out":                 func(s *Server, r *http.Request) error { s.ctrl.SignOut(); return nil },
	"back":                     func(s *Server, r *http.Request) error { s.ctrl.Back(); return nil },
	"go-home":                  func(s *Server, r *http.Request) error { s.ctrl.GoHome(); return nil },
	"open-children":            func(s *Server, r *http.Request) error { s.ctrl.OpenChildren(); return nil },
	"open-child-create":        func(s *Server, r *http.Request) error { s.ctrl.OpenChildCreate(); return nil },
	"open-story-create":        func(s *Server, r *http.Request) error { s.ctrl.OpenStoryCreate(); return nil },
	"open-library":             func(s *Server, r *http.Request) error { s.ctrl.OpenLibrary(); return nil },
	"open-settings":            func(s *Server, r *http.Request) error { s.ctrl.OpenSettings(); return nil },
	"open-plans":               func(s *Server, r *http.Request) error { s.ctrl.OpenPlans(); return nil },
	"open-subscription-status": func(s *Server, r *http.Request) error { s.ctrl.OpenSubscriptionStatus(); return nil },
	"save-story":               func(s *Server, r *http.Request) error { return s.ctrl.SaveStory() },
	"read-story":               func(s *Server, r *http.Request) error { return s.ctrl.ReadStory() },
	"resend-code":              func(s *Server, r *http.Request) error { return s.ctrl.ResendCode(r.Context()) },
	"cancel-checkout":          func(s *Server, r *http.Request) error { s.ctrl.CancelCheckout(); return nil },

	"send-code": func(s *Server, r *http.Request) error {
		var body struct {
			Destination string `json:"destination"`
		}
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.SendCode(r.Context(), body.Destination)
	},
	"verify-code": func(s *Server, r *http.Request) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.VerifyCode(r.Context(), body.Code)
	},
	"select-child": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.SelectChild(body.ID)
	},
	"add-child": func(s *Server, r *http.Request) error {
		var in tale.ChildInput
		if err := decodeBody(r, &in); err != nil {
			return err
		}
		_, err := s.ctrl.AddChild(in)
		return err
	},
	"update-child": func(s *Server, r *http.Request) error {
		var in tale.ChildInput
		if err := decodeBody(r, &in); err != nil {
			return err
		}
		return s.ctrl.UpdateChild(in)
	},
	"delete-child": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.DeleteChild(body.ID)
	},
	"generate-story": func(s *Server, r *http.Request) error {
		var req tale.StoryRequest
		if err := decodeBody(r, &req); err != nil {
			return err
		}
		_, err := s.ctrl.GenerateStory(r.Context(), req)
		return err
	},
	"open-story": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.OpenStory(body.ID)
	},
	"delete-story": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.DeleteStory(body.ID)
	},
	"toggle-favorite": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.ToggleFavorite(body.ID)
	},
	"share-story": func(s *Server, r *http.Request) error {
		var body idBody
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.ShareStory(body.ID)
	},
	"select-plan": func(s *Server, r *http.Request) error {
		var body struct {
			PlanID string `json:"plan_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		return s.ctrl.SelectPlan(body.PlanID)
	},
	"confirm-checkout": func(s *Server, r *http.Request) error {
		var body struct {
			Period tale.BillingPeriod `json:"period"`
		}
		if err := decodeBody(r, &body); err != nil {
			return err
		}
		_, err := s.ctrl.ConfirmCheckout(r.Context(), body.Period)
		return err
	},
}
