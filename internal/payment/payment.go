// Package payment authorizes checkouts with the PagSeguro checkout API: it
// builds the ISO-8859-1 request document, submits it with the merchant
// credentials, validates the reply, keeps the transaction code pending for the
// customer's checkout session and records the transaction history.
package payment
