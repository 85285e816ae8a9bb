/*
Package dihttp provides HTTP middleware that creates a child *di.Injector
scope for each request.

Example:

	package main

	import (
		"net/http"

		di "github.com/kestrelgraph/injector"
		"github.com/kestrelgraph/injector/dicontext"
		"github.com/kestrelgraph/injector/dihttp"
	)

	func main() {
		inj, err := di.New(di.Production, di.ModuleFunc(func(b *di.Binder) {
			di.Bind[*Service](b).ToConstructor(NewService)
			di.Bind[*OtherService](b).ToConstructor(NewOtherService).In(di.NewScope("request"))
		}))
		if err != nil {
			panic(err)
		}

		scopeMiddleware := dihttp.NewScopeMiddleware(inj)

		handler := func(w http.ResponseWriter, r *http.Request) {
			svc := dicontext.MustResolve[*OtherService](r.Context())
			svc.HandleRequest(w, r)
		}

		http.HandleFunc("/", scopeMiddleware(http.HandlerFunc(handler)).ServeHTTP)
		http.ListenAndServe(":8080", nil)
	}
*/
package dihttp
