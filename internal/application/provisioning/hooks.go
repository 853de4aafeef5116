package provisioning

// Hooks contrato con quien maneja el flujo (la capa HTTP/UI). Todos los campos son opcionales.
// Se invocan fuera del lock del flujo, en la goroutine que provocó la transición.
type Hooks struct {
	OnOwnerResolved   func(ownerID string)
	OnCompanyResolved func(companyID string)
	OnCompleted       func(accountID string)
	OnFailed          func(err error)
	OnTransition      func(from, to State)
}

// ChainHooks combina varios Hooks; cada evento se entrega a todos en orden.
func ChainHooks(hs ...Hooks) Hooks {
	return Hooks{
		OnOwnerResolved: func(id string) {
			for _, h := range hs {
				if h.OnOwnerResolved != nil {
					h.OnOwnerResolved(id)
				}
			}
		},
		OnCompanyResolved: func(id string) {
			for _, h := range hs {
				if h.OnCompanyResolved != nil {
					h.OnCompanyResolved(id)
				}
			}
		},
		OnCompleted: func(id string) {
			for _, h := range hs {
				if h.OnCompleted != nil {
					h.OnCompleted(id)
				}
			}
		},
		OnFailed: func(err error) {
			for _, h := range hs {
				if h.OnFailed != nil {
					h.OnFailed(err)
				}
			}
		},
		OnTransition: func(from, to State) {
			for _, h := range hs {
				if h.OnTransition != nil {
					h.OnTransition(from, to)
				}
			}
		},
	}
}

// notices eventos acumulados bajo el lock y entregados después de soltarlo.
type notices []func(h Hooks)

func (n *notices) transition(from, to State) {
	if from == to {
		return
	}
	*n = append(*n, func(h Hooks) {
		if h.OnTransition != nil {
			h.OnTransition(from, to)
		}
	})
}

func (n *notices) ownerResolved(id string) {
	*n = append(*n, func(h Hooks) {
		if h.OnOwnerResolved != nil {
			h.OnOwnerResolved(id)
		}
	})
}

func (n *notices) companyResolved(id string) {
	*n = append(*n, func(h Hooks) {
		if h.OnCompanyResolved != nil {
			h.OnCompanyResolved(id)
		}
	})
}

func (n *notices) completed(id string) {
	*n = append(*n, func(h Hooks) {
		if h.OnCompleted != nil {
			h.OnCompleted(id)
		}
	})
}

func (n *notices) failed(err error) {
	*n = append(*n, func(h Hooks) {
		if h.OnFailed != nil {
			h.OnFailed(err)
		}
	})
}

func (n notices) fire(h Hooks) {
	for _, f := range n {
		f(h)
	}
}
