package route

import "net/http"

// IsValidMethod reports whether s is exactly one of the lowercase methods in
// Methods.
func IsValidMethod(s string) bool {
	for _, m := range Methods {
		if string(m) == s {
			return true
		}
	}
	return false
}

// IsHandlerChain reports whether mw and h form a callable chain: a terminal
// handler is present and no middleware entry is nil.
func IsHandlerChain(mw []Middleware, h http.Handler) bool {
	if h == nil {
		return false
	}
	if hf, ok := h.(http.HandlerFunc); ok && hf == nil {
		return false
	}
	for _, m := range mw {
		if m == nil {
			return false
		}
	}
	return true
}

// IsDescriptor reports whether d has a valid method and handler chain.
func IsDescriptor(d Descriptor) bool {
	return IsValidMethod(string(d.Method)) && IsHandlerChain(d.Middleware, d.Handler)
}

// IsDescriptorList reports whether ds is a list (non-nil) whose every element
// passes IsDescriptor. An empty, non-nil list is valid.
func IsDescriptorList(ds []Descriptor) bool {
	if ds == nil {
		return false
	}
	for _, d := range ds {
		if !IsDescriptor(d) {
			return false
		}
	}
	return true
}
