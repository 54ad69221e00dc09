/*
Package qrs_client provides a typed interface to the Qlik Sense Repository Service (QRS) REST API.

The main entry point is QRSRest, created from a QRSConfig with NewQRSRest. The config selects
the authentication mode (client certificate, header through a virtual proxy or JWT), the
connection parameters and optional request/response hooks. Every resource of the client
(Tags, CustomProperties, Users, Streams, Apps, ReloadTasks, ExecutionResults, Table, About)
shares a single session.

Creating or updating entities takes human readable references: tag names, custom properties
as "NAME=VALUE" and owners as "USER_DIRECTORY\USER_ID". They are resolved through the
CommonPropertiesResolver; updates combine them with the current entity according to
UpdateOptions (set, add or remove).

Table queries accept a client side filter such as "name sw 'Sales' and published eq true",
compiled by package filter and evaluated against every returned row.
*/
package qrs_client
