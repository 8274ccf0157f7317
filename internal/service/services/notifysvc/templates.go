package notifysvc

import "text/template"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`Hi {{.CustomerName}},

Thank you for your order {{.OrderNumber}}.

{{range .Items}}{{.Quantity}} x {{.Name}} @ {{.UnitPrice}}
{{end}}
Total: {{.Total}} {{.Currency}}
Payment method: {{.PaymentMethod}}

We will let you know as soon as your payment is confirmed.
`))

var paymentTemplate = template.Must(template.New("payment").Parse(`Hi {{.CustomerName}},

We received your payment of {{.Total}} {{.Currency}} for order {{.OrderNumber}}.
Your order is now being prepared.
`))

var shippedTemplate = template.Must(template.New("shipped").Parse(`Hi {{.CustomerName}},

Your order {{.OrderNumber}} is on its way.
{{if .TrackingNumber}}Tracking number: {{.TrackingNumber}}
{{end}}`))
