// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package loscheme

// DefaultPrelude contains Scheme definitions layered on top of the
// primitive table (internal/primitive) that are convenient enough to want
// available by default, but are themselves ordinary (define ...) forms
// rather than primitives — proof that the primitive set is expressive
// enough to define library procedures in terms of itself. Every definition
// uses (define NAME (lambda (PARAMS) BODY)) rather than the procedure-define
// shorthand, since the analyzer (internal/analyzer) only accepts a bare
// symbol NAME.
const DefaultPrelude = `
(define not (lambda (x) (if x #f #t)))
(define caar (lambda (p) (car (car p))))
(define cadr (lambda (p) (car (cdr p))))
(define cddr (lambda (p) (cdr (cdr p))))
(define caddr (lambda (p) (car (cddr p))))
(define length
  (lambda (lst)
    (if (null? lst)
        0
        (+ 1 (length (cdr lst))))))
(define append
  (lambda (a b)
    (if (null? a)
        b
        (cons (car a) (append (cdr a) b)))))
(define reverse
  (lambda (lst)
    (define iter
      (lambda (lst acc)
        (if (null? lst)
            acc
            (iter (cdr lst) (cons (car lst) acc)))))
    (iter lst '())))
(define map
  (lambda (f lst)
    (if (null? lst)
        '()
        (cons (f (car lst)) (map f (cdr lst))))))
(define for-each
  (lambda (f lst)
    (if (null? lst)
        #t
        (begin (f (car lst)) (for-each f (cdr lst))))))
`
